package gateway

import (
	"errors"
	"net/http"
)

var ErrEmptyBody = errors.New("gateway: empty response body")

// Request describes one api call. It is a value: the gateway never mutates
// it, so a refresh-triggered retry sends exactly what the caller built.
type Request struct {
	Method string
	// Path is relative to the gateway base url and may carry a query string.
	Path   string
	Header http.Header
	// Body is json-encoded once before the first attempt. []byte is sent as is.
	Body any
	// Anonymous requests carry no bearer token and never trigger a refresh.
	// Login style endpoints use it since their 403 means bad credentials.
	Anonymous bool
}

func NewRequest(method, path string, body any) Request {
	return Request{Method: method, Path: path, Body: body}
}

func Get(path string) Request {
	return NewRequest(http.MethodGet, path, nil)
}

func Post(path string, body any) Request {
	return NewRequest(http.MethodPost, path, body)
}

func Put(path string, body any) Request {
	return NewRequest(http.MethodPut, path, body)
}

// WithHeader returns a copy of r with the header set.
func (r Request) WithHeader(key, value string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set(key, value)
	r.Header = h
	return r
}

// AsAnonymous returns a copy of r that skips authentication.
func (r Request) AsAnonymous() Request {
	r.Anonymous = true
	return r
}

func (r Request) encodeBody() ([]byte, error) {
	switch body := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return body, nil
	default:
		return jsonMarshal(body)
	}
}

// Response is the final outcome of a successful Dispatch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return ErrEmptyBody
	}
	return jsonUnmarshal(r.Body, v)
}
