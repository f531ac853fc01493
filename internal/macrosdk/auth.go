package macrosdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/state"
	"github.com/macropath/macropath/internal/utils"
)

const (
	authLogin          = "/auth/login"
	authRegister       = "/auth/register"
	authOTPVerify      = "/auth/otp/verify"
	authOTPResend      = "/auth/otp/resend"
	authForgotPassword = "/auth/password/forgot"
	authResetPassword  = "/auth/password/reset"
	authGoogle         = "/auth/google"
)

var otpRegex = regexp.MustCompile(`^\d{6}$`)

// IsValidOTP reports whether code looks like a six digit one-time password.
func IsValidOTP(code string) bool {
	return otpRegex.MatchString(code)
}

// AuthAPI signs the user in and out. Token issuing calls are sent without a
// bearer token and persist the returned pair.
type AuthAPI struct {
	c     *caller
	store credstore.Store
}

func newAuthAPI(c *caller, store credstore.Store) *AuthAPI {
	return &AuthAPI{c: c, store: store}
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	resp, err := call[AuthResponse](ctx, a.c, state.AreaAuth, "login",
		gateway.Post(authLogin, &LoginRequest{Email: email, Password: password}).AsAnonymous())
	if err != nil {
		return nil, err
	}
	return resp, a.persist(ctx, "login", resp.AccessToken, resp.RefreshToken)
}

// Register creates an account. Most accounts must confirm the emailed code
// with VerifyOTP before tokens are issued.
func (a *AuthAPI) Register(ctx context.Context, name, email, password string) (*RegisterResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	resp, err := call[RegisterResponse](ctx, a.c, state.AreaAuth, "register",
		gateway.Post(authRegister, &RegisterRequest{Name: name, Email: email, Password: password}).AsAnonymous())
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" && resp.RefreshToken == "" {
		return resp, nil
	}
	return resp, a.persist(ctx, "register", resp.AccessToken, resp.RefreshToken)
}

func (a *AuthAPI) VerifyOTP(ctx context.Context, email, code string) (*AuthResponse, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !IsValidOTP(code) {
		return nil, ErrInvalidOTP
	}

	resp, err := call[AuthResponse](ctx, a.c, state.AreaAuth, "verify otp",
		gateway.Post(authOTPVerify, &VerifyOTPRequest{Email: email, Code: code}).AsAnonymous())
	if err != nil {
		return nil, err
	}
	return resp, a.persist(ctx, "verify otp", resp.AccessToken, resp.RefreshToken)
}

func (a *AuthAPI) ResendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	return call[MessageResponse](ctx, a.c, state.AreaAuth, "resend otp",
		gateway.Post(authOTPResend, &EmailRequest{Email: email}).AsAnonymous())
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	return call[MessageResponse](ctx, a.c, state.AreaAuth, "forgot password",
		gateway.Post(authForgotPassword, &EmailRequest{Email: email}).AsAnonymous())
}

func (a *AuthAPI) ResetPassword(ctx context.Context, email, code, newPassword string) (*MessageResponse, error) {
	email, err := checkEmail(email)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !IsValidOTP(code) {
		return nil, ErrInvalidOTP
	}
	if newPassword == "" {
		return nil, ErrMissingPassword
	}

	return call[MessageResponse](ctx, a.c, state.AreaAuth, "reset password",
		gateway.Post(authResetPassword, &ResetPasswordRequest{Email: email, Code: code, Password: newPassword}).AsAnonymous())
}

func (a *AuthAPI) GoogleSignIn(ctx context.Context, idToken string) (*AuthResponse, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}

	resp, err := call[AuthResponse](ctx, a.c, state.AreaAuth, "google sign in",
		gateway.Post(authGoogle, &GoogleSignInRequest{IDToken: idToken}).AsAnonymous())
	if err != nil {
		return nil, err
	}
	return resp, a.persist(ctx, "google sign in", resp.AccessToken, resp.RefreshToken)
}

// Logout forgets the local credential pair and resets the tracked state.
func (a *AuthAPI) Logout(ctx context.Context) error {
	if err := credstore.ClearPair(ctx, a.store); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if a.c.tracker != nil {
		a.c.tracker.Reset()
	}
	slog.InfoContext(ctx, "logged out")
	return nil
}

// Session returns the stored pair. ok is false when the user is logged out.
func (a *AuthAPI) Session(ctx context.Context) (pair credstore.Pair, ok bool, err error) {
	pair, err = credstore.LoadPair(ctx, a.store)
	if errors.Is(err, credstore.ErrNotFound) || errors.Is(err, credstore.ErrIncompletePair) {
		return pair, false, nil
	} else if err != nil {
		return pair, false, err
	}
	return pair, true, nil
}

func (a *AuthAPI) persist(ctx context.Context, op, access, refresh string) error {
	pair := credstore.Pair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return fmt.Errorf("%s: %w", op, ErrNoTokens)
	}
	if err := credstore.SavePair(ctx, a.store, pair); err != nil {
		return fmt.Errorf("%s: save credentials: %w", op, err)
	}
	slog.DebugContext(ctx, "credentials saved", "op", op, "access", utils.MaskSecret(access))
	return nil
}

func checkEmail(email string) (string, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	return email, nil
}
