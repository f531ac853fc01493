// Package gateway sends api requests with the stored bearer token and
// recovers from an expired access token with one refresh and one retry.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/utils"
	"github.com/macropath/macropath/internal/version"
	"golang.org/x/sync/singleflight"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderClientVersion = "X-Macropath-Version"
	HeaderDeviceID      = "X-Macropath-Device-Id"

	bearerPrefix    = "Bearer "
	contentTypeJSON = "application/json"

	// retries allowed per request after a refresh
	maxRefreshRetries = 1
)

type options struct {
	notifier     Notifier
	singleFlight bool
	timeout      time.Duration
	userAgent    string
	deviceID     string
}

type Option func(*options)

// WithNotifier sets who is told about unrecoverable session expiry.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithSingleFlightRefresh coalesces concurrent refreshes into one call.
// Without it every 403 refreshes on its own and the last store write wins.
func WithSingleFlightRefresh() Option {
	return func(o *options) {
		o.singleFlight = true
	}
}

// WithTimeout overrides the transport's default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent replaces the default MacroPath user agent.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithDeviceID sets the device header; an empty id omits it.
func WithDeviceID(id string) Option {
	return func(o *options) {
		o.deviceID = id
	}
}

// Gateway is the single outbound path to the api. Build one in the
// composition root and hand it to the feature clients.
type Gateway struct {
	baseURL   string
	client    *req.Client
	refresher *req.Client
	store     credstore.Store
	notifier  Notifier
	flight    *singleflight.Group
}

func New(baseURL string, store credstore.Store, opts ...Option) (*Gateway, error) {
	if err := utils.ValidateURL(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoServerURL, err)
	}
	if store == nil {
		return nil, ErrNoStore
	}

	o := &options{
		notifier:  logNotifier{},
		userAgent: version.UserAgent(),
		deviceID:  utils.HWID,
	}
	for _, opt := range opts {
		opt(o)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	g := &Gateway{
		baseURL:   baseURL,
		client:    newClient(baseURL, o),
		refresher: newClient(baseURL, o),
		store:     store,
		notifier:  o.notifier,
	}
	if o.singleFlight {
		g.flight = &singleflight.Group{}
	}

	return g, nil
}

func newClient(baseURL string, o *options) *req.Client {
	c := req.C().
		SetBaseURL(baseURL).
		SetUserAgent(o.userAgent).
		SetCommonHeader(HeaderContentType, contentTypeJSON).
		SetCommonHeader(HeaderClientVersion, version.Version).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if o.deviceID != "" {
		c.SetCommonHeader(HeaderDeviceID, o.deviceID)
	}
	if o.timeout > 0 {
		c.SetTimeout(o.timeout)
	}
	return c
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Store returns the credential store the gateway reads tokens from.
func (g *Gateway) Store() credstore.Store {
	return g.store
}

// Close drops idle keep-alive connections.
func (g *Gateway) Close() {
	g.client.GetClient().CloseIdleConnections()
	g.refresher.GetClient().CloseIdleConnections()
}

// Dispatch sends r with the current access token. A first 403 triggers one
// Refresh; on success r is sent again with the new token and that outcome is
// final. A failed refresh notifies the Notifier and returns a
// *SessionExpiredError. Every other failure is returned unchanged.
func (g *Gateway) Dispatch(ctx context.Context, r Request) (*Response, error) {
	body, err := r.encodeBody()
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", r.Method, r.Path, err)
	}
	return g.dispatch(ctx, r, body, 0)
}

func (g *Gateway) dispatch(ctx context.Context, r Request, body []byte, retries int) (*Response, error) {
	var token string
	if !r.Anonymous {
		token = g.accessToken(ctx)
	}

	resp, err := g.send(ctx, r, body, token)
	if err == nil {
		return resp, nil
	}

	var statusErr *StatusError
	if r.Anonymous || retries >= maxRefreshRetries || !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		return nil, err
	}

	slog.DebugContext(ctx, "access token rejected, refreshing", "method", r.Method, "path", r.Path)
	if refreshErr := g.Refresh(ctx); refreshErr != nil {
		expired := &SessionExpiredError{Cause: statusErr, Reason: refreshErr}
		g.notifier.SessionExpired(ctx, expired)
		return nil, expired
	}

	return g.dispatch(ctx, r, body, retries+1)
}

func (g *Gateway) send(ctx context.Context, r Request, body []byte, token string) (*Response, error) {
	request := g.client.R().SetContext(ctx)
	if len(r.Header) > 0 {
		if request.Headers == nil {
			request.Headers = make(http.Header, len(r.Header))
		}
		for key, values := range r.Header {
			for _, v := range values {
				request.Headers.Add(key, v)
			}
		}
	}
	if token != "" {
		request.SetHeader(HeaderAuthorization, bearerPrefix+token)
	}
	if body != nil {
		request.SetBodyBytes(body)
	}

	res, err := request.Send(r.Method, r.Path)
	if err != nil {
		return nil, fmt.Errorf("http request error: %s %s: %w", r.Method, r.Path, err)
	}

	slog.DebugContext(ctx, "api response", "method", r.Method, "path", r.Path, "status", res.StatusCode, "auth", token != "")

	payload := res.Bytes()
	if res.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(r, res.StatusCode, payload)
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       payload,
	}, nil
}

// accessToken never fails: a broken store means an unauthenticated request.
func (g *Gateway) accessToken(ctx context.Context) string {
	token, err := g.store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			slog.WarnContext(ctx, "credential store read failed, sending without token", "key", credstore.KeyAccessToken, "error", err)
		}
		return ""
	}
	return token
}
