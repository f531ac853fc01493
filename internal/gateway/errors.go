package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoServerURL = errors.New("gateway: server url missing or invalid")
	ErrNoStore     = errors.New("gateway: credential store missing")

	// ErrSessionExpired means the refresh credential is gone or was rejected.
	// Callers should send the user back to login.
	ErrSessionExpired = errors.New("gateway: session expired")
)

// StatusError is returned for api responses with status >= 400.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message comes from the `{"message": "..."}` error body when present.
	Message string
	Body    []byte
}

func newStatusError(r Request, statusCode int, body []byte) *StatusError {
	return &StatusError{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: statusCode,
		Message:    errorMessage(body, statusCode),
		Body:       body,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsStatus reports whether err carries an api response with the given status.
func IsStatus(err error, statusCode int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == statusCode
}

// SessionExpiredError is the terminal outcome of a 403 whose refresh failed.
// It matches ErrSessionExpired and unwraps to the original 403 StatusError.
type SessionExpiredError struct {
	Cause  *StatusError
	Reason error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %v (refresh: %v)", e.Cause, e.Reason)
}

func (e *SessionExpiredError) Unwrap() []error {
	return []error{ErrSessionExpired, e.Cause}
}

// ErrorBody is the api's error payload. Some services answer `error`
// instead of `message`.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(body []byte, statusCode int) string {
	var payload ErrorBody
	if len(body) > 0 && jsonUnmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(statusCode)
}
