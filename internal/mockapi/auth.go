package mockapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid or expired code")
)

const otpLength = 6

// AuthService issues and rotates token pairs for the fixture accounts.
type AuthService struct {
	config   *Config
	accounts *accounts
	tokens   *tokenIssuer
	mailer   Mailer
	codes    *expirable.LRU[string, string]
	// live refresh token ids; a rotated or evicted id can no longer refresh
	sessions *lru.Cache[string, string]
}

func newAuthService(config *Config, accts *accounts, mailer Mailer, now func() time.Time) (*AuthService, error) {
	sessions, err := lru.New[string, string](config.MaxSessions)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}

	return &AuthService{
		config:   config,
		accounts: accts,
		tokens:   &tokenIssuer{issuer: config.TokenIssuer, now: now},
		mailer:   mailer,
		codes:    expirable.NewLRU[string, string](0, nil, config.OTPExpiry), // 0 = unbounded
		sessions: sessions,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	if _, err := s.accounts.create(name, email, password, false); err != nil {
		return err
	}
	return s.sendOTP(ctx, email, PurposeVerify)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*macrosdk.AuthResponse, error) {
	user, ok := s.accounts.checkPassword(email, password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}
	return s.issue(user)
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*macrosdk.AuthResponse, error) {
	if err := s.consumeOTP(email, PurposeVerify, code); err != nil {
		return nil, err
	}
	user, err := s.accounts.markVerified(email)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ResendOTP is silent for unknown or verified accounts.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, ok := s.accounts.byEmailAddr(email)
	if !ok || user.Verified {
		return nil
	}
	return s.sendOTP(ctx, email, PurposeVerify)
}

// ForgotPassword is silent for unknown accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if _, ok := s.accounts.byEmailAddr(email); !ok {
		return nil
	}
	return s.sendOTP(ctx, email, PurposeReset)
}

// ResetPassword sets the new password and ends every session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, password string) error {
	if err := s.consumeOTP(email, PurposeReset, code); err != nil {
		return err
	}
	if err := s.accounts.setPassword(email, password); err != nil {
		return err
	}
	revoked := s.revoke(email)
	slog.InfoContext(ctx, "password reset", "email", utils.MaskEmail(email), "revokedSessions", revoked)
	return nil
}

func (s *AuthService) GoogleSignIn(ctx context.Context, idToken string) (*macrosdk.AuthResponse, error) {
	claims, err := parseGoogleIDToken(idToken)
	if err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(claims.Email)
	user, ok := s.accounts.byEmailAddr(email)
	if !ok {
		name := claims.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		if user, err = s.accounts.create(name, email, "", true); err != nil {
			return nil, err
		}
	} else if !user.Verified {
		if user, err = s.accounts.markVerified(email); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// Refresh rotates a refresh token. Each refresh token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*macrosdk.AuthResponse, error) {
	claims, err := s.tokens.parse(refreshToken, RefreshToken, s.config.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}

	owner, ok := s.sessions.Peek(claims.ID)
	if !ok || owner != claims.Email || !s.sessions.Remove(claims.ID) {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrInvalidToken)
	}

	user, ok := s.accounts.byEmailAddr(claims.Email)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrUserNotFound)
	}
	return s.issue(user)
}

// ValidateAccessToken returns the claims of a live access token.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	return s.tokens.parse(accessToken, AccessToken, s.config.AccessTokenSecret)
}

// PendingOTP returns the code waiting for email, for tests and local use.
func (s *AuthService) PendingOTP(email string, purpose OTPPurpose) (string, bool) {
	return s.codes.Peek(otpKey(email, purpose))
}

func (s *AuthService) issue(user macrosdk.User) (*macrosdk.AuthResponse, error) {
	access, _, err := s.tokens.sign(user.ID, user.Email, AccessToken, s.config.AccessTokenSecret, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := s.tokens.sign(user.ID, user.Email, RefreshToken, s.config.RefreshTokenSecret, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	s.sessions.Add(claims.ID, user.Email)
	return &macrosdk.AuthResponse{AccessToken: access, RefreshToken: refresh, User: &user}, nil
}

func (s *AuthService) revoke(email string) int {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, id := range s.sessions.Keys() {
		if owner, ok := s.sessions.Peek(id); ok && owner == email {
			ids.Add(id)
		}
	}
	for id := range ids.Iter() {
		s.sessions.Remove(id)
	}
	return ids.Cardinality()
}

func (s *AuthService) sendOTP(ctx context.Context, email string, purpose OTPPurpose) error {
	code, err := generateOTP(otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	s.codes.Add(otpKey(email, purpose), code)
	return s.mailer.SendOTP(ctx, email, purpose, code)
}

func (s *AuthService) consumeOTP(email string, purpose OTPPurpose, code string) error {
	key := otpKey(email, purpose)
	stored, ok := s.codes.Get(key)
	if !ok || stored != code {
		return ErrInvalidOTP
	}
	s.codes.Remove(key)
	return nil
}

func otpKey(email string, purpose OTPPurpose) string {
	return string(purpose) + ":" + email
}

func generateOTP(length int) (string, error) {
	var b strings.Builder
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
