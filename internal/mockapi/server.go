// Package mockapi is a local stand-in for the MacroPath backend. It speaks the
// same wire contract as the real services with in-memory accounts so the
// client can be developed and tested offline. Meal plans and chat replies
// are canned.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/version"
)

type options struct {
	mailer     Mailer
	now        func() time.Time
	bcryptCost int
}

type Option func(*options)

func WithMailer(m Mailer) Option {
	return func(o *options) {
		o.mailer = m
	}
}

// WithClock replaces time.Now for token issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

type Server struct {
	config   *Config
	auth     *AuthService
	accounts *accounts
	handler  http.Handler
	server   *http.Server
}

func New(config *Config, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		mailer:     LogMailer{},
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(o)
	}

	accts := newAccounts(o.bcryptCost)
	authSvc, err := newAuthService(config, accts, o.mailer, o.now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		auth:     authSvc,
		accounts: accts,
	}

	s.handler, err = s.routes(o.now)
	if err != nil {
		return nil, err
	}
	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(now func() time.Time) (http.Handler, error) {
	otpLimit, err := rateLimiter(s.config.OTPRate)
	if err != nil {
		return nil, fmt.Errorf("otp rate %q: %w", s.config.OTPRate, err)
	}

	authH := &authHandler{auth: s.auth}
	featH := &featureHandler{accounts: s.accounts, now: now}

	r := gin.New()

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(securityHeaders())
	r.Use(gzipMiddleware())
	r.Use(corsMiddleware())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Short()})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/login", authH.Login)
		auth.POST("/register", otpLimit, authH.Register)
		auth.POST("/otp/verify", authH.VerifyOTP)
		auth.POST("/otp/resend", otpLimit, authH.ResendOTP)
		auth.POST("/password/forgot", otpLimit, authH.ForgotPassword)
		auth.POST("/password/reset", authH.ResetPassword)
		auth.POST("/google", authH.Google)
		auth.POST("/refresh", authH.Refresh)
	}

	api := r.Group("/")
	api.Use(jwtAuth(s.auth))
	{
		api.POST("/mealPlans/get", featH.GetMealPlans)
		api.POST("/mealPlans/generate", featH.GenerateMealPlan)
		api.POST("/mealPlans/regenerate", featH.RegenerateMeal)

		api.GET("/profile/get", featH.GetProfile)
		api.PUT("/profile/update", featH.UpdateProfile)
		api.POST("/personalization/save", featH.SavePersonalization)

		api.POST("/chat/send", featH.SendChat)
		api.GET("/chat/history", featH.ChatHistory)
	}

	return r, nil
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Auth() *AuthService {
	return s.auth
}

// AddUser creates a verified account.
func (s *Server) AddUser(name, email, password string) (macrosdk.User, error) {
	return s.accounts.create(name, email, password, true)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	slog.Info("mock api start", "addr", ln.Addr().String(), "accessTokenExpiry", s.config.AccessTokenExpiry)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("mock api shutdown signal")
	return s.Stop(context.WithoutCancel(ctx))
}

func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
