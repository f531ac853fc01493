package macrosdk

import (
	"errors"
	"net/http"

	"github.com/macropath/macropath/internal/gateway"
)

var (
	ErrNoDispatcher = errors.New("sdk: dispatcher missing")

	// auth input
	ErrInvalidEmail    = errors.New("sdk: invalid email")
	ErrInvalidOTP      = errors.New("sdk: invalid otp")
	ErrMissingPassword = errors.New("sdk: password missing")
	ErrMissingName     = errors.New("sdk: name missing")
	ErrMissingIDToken  = errors.New("sdk: google id token missing")
	ErrNoTokens        = errors.New("sdk: response carried no tokens")

	// feature input
	ErrEmptyMessage = errors.New("sdk: empty chat message")
	ErrNoPlanID     = errors.New("sdk: meal plan id missing")
)

// IsSessionExpired reports whether the user has to log in again.
func IsSessionExpired(err error) bool {
	return errors.Is(err, gateway.ErrSessionExpired)
}

// IsNotFound reports whether the api answered 404.
func IsNotFound(err error) bool {
	return gateway.IsStatus(err, http.StatusNotFound)
}

// APIMessage returns the backend's error message, if err carries one.
func APIMessage(err error) (string, bool) {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message, true
	}
	return "", false
}
