package mockapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOTP(ctx context.Context, email string, purpose OTPPurpose, code string) error {
	args := m.Called(ctx, email, purpose, code)
	return args.Error(0)
}

var _ Mailer = (*MockMailer)(nil)

type testEnv struct {
	srv    *Server
	http   *httptest.Server
	clock  *fakeClock
	mailer *MockMailer
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := DefaultConfig()
	cfg.OTPRate = "1000-M"
	for _, fn := range mutate {
		fn(cfg)
	}

	clock := newFakeClock()
	mailer := &MockMailer{}
	mailer.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	srv, err := New(cfg, WithClock(clock.Now), WithMailer(mailer), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{srv: srv, http: ts, clock: clock, mailer: mailer}
}

// do sends a json request and decodes a json answer into out when given.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.http.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var msg struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &msg)
	if out != nil && res.StatusCode < 300 {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return res.StatusCode, msg.Message
}

func (e *testEnv) login(t *testing.T, email, password string) *macrosdk.AuthResponse {
	t.Helper()
	var resp macrosdk.AuthResponse
	status, msg := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &resp)
	require.Equal(t, http.StatusOK, status, msg)
	return &resp
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []func(*Config){
		func(c *Config) { c.Addr = "" },
		func(c *Config) { c.TokenIssuer = "" },
		func(c *Config) { c.AccessTokenSecret = "" },
		func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret },
		func(c *Config) { c.AccessTokenExpiry = 0 },
		func(c *Config) { c.OTPExpiry = -time.Second },
		func(c *Config) { c.MaxSessions = 0 },
	}
	for _, mutate := range tests {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate())
	}

	cfg := DefaultConfig()
	cfg.OTPRate = "lots"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestAuth_RegisterVerifyLogin(t *testing.T) {
	e := newTestEnv(t)

	var reg macrosdk.RegisterResponse
	status, _ := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "Ana@Example.com", "password": "s3cret-pass",
	}, &reg)
	require.Equal(t, http.StatusCreated, status)
	assert.Empty(t, reg.AccessToken)
	require.NotNil(t, reg.User)
	assert.False(t, reg.User.Verified)
	e.mailer.AssertCalled(t, "SendOTP", mock.Anything, "ana@example.com", PurposeVerify, mock.Anything)

	// duplicate
	status, msg := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "s3cret-pass",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ErrUserExists.Error(), msg)

	// unverified accounts cannot log in
	status, msg = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "s3cret-pass"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, ErrNotVerified.Error(), msg)

	status, _ = e.do(t, http.MethodPost, "/auth/otp/verify", "", map[string]string{"email": "ana@example.com", "code": "000000x"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	code, ok := e.srv.Auth().PendingOTP("ana@example.com", PurposeVerify)
	require.True(t, ok)

	var verified macrosdk.AuthResponse
	status, _ = e.do(t, http.MethodPost, "/auth/otp/verify", "", map[string]string{"email": "ana@example.com", "code": code}, &verified)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, verified.AccessToken)
	assert.NotEmpty(t, verified.RefreshToken)
	assert.True(t, verified.User.Verified)

	// code is single use
	status, _ = e.do(t, http.MethodPost, "/auth/otp/verify", "", map[string]string{"email": "ana@example.com", "code": code}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	resp := e.login(t, "ana@example.com", "s3cret-pass")
	assert.Equal(t, "Ana", resp.User.Name)

	status, msg = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrInvalidCredentials.Error(), msg)
}

func TestAuth_ProtectedRoutes(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Ben", "ben@example.com", "password-1")
	require.NoError(t, err)
	tokens := e.login(t, "ben@example.com", "password-1")

	status, _ := e.do(t, http.MethodGet, "/profile/get", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, msg := e.do(t, http.MethodGet, "/profile/get", "garbage", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "invalid token", msg)

	// a refresh token is not an access token
	status, _ = e.do(t, http.MethodGet, "/profile/get", tokens.RefreshToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var profile macrosdk.ProfileResponse
	status, _ = e.do(t, http.MethodGet, "/profile/get", tokens.AccessToken, nil, &profile)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ben@example.com", profile.Profile.Email)

	e.clock.Advance(DefaultConfig().AccessTokenExpiry + time.Second)
	status, msg = e.do(t, http.MethodGet, "/profile/get", tokens.AccessToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "token expired", msg)
}

func TestAuth_RefreshRotation(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Cy", "cy@example.com", "password-1")
	require.NoError(t, err)
	first := e.login(t, "cy@example.com", "password-1")

	var second macrosdk.AuthResponse
	status, _ := e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken}, &second)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Nil(t, second.User)

	// single use
	status, msg := e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": first.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid token", msg)

	status, _ = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": second.AccessToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// expired refresh tokens are rejected too
	e.clock.Advance(DefaultConfig().RefreshTokenExpiry + time.Minute)
	status, _ = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": second.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_PasswordReset(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Dee", "dee@example.com", "old-password")
	require.NoError(t, err)
	session := e.login(t, "dee@example.com", "old-password")

	status, _ := e.do(t, http.MethodPost, "/auth/password/forgot", "", map[string]string{"email": "nobody@example.com"}, nil)
	assert.Equal(t, http.StatusOK, status)
	e.mailer.AssertNotCalled(t, "SendOTP", mock.Anything, "nobody@example.com", mock.Anything, mock.Anything)

	status, _ = e.do(t, http.MethodPost, "/auth/password/forgot", "", map[string]string{"email": "dee@example.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	code, ok := e.srv.Auth().PendingOTP("dee@example.com", PurposeReset)
	require.True(t, ok)

	status, _ = e.do(t, http.MethodPost, "/auth/password/reset", "", map[string]string{
		"email": "dee@example.com", "code": code, "password": "new-password",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	// old sessions are gone, new password works
	status, _ = e.do(t, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": session.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	e.login(t, "dee@example.com", "new-password")
}

func TestAuth_GoogleSignIn(t *testing.T) {
	e := newTestEnv(t)

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &GoogleClaims{
		Email: "Eve@Example.com", EmailVerified: true, Name: "Eve",
	}).SignedString([]byte("not-googles-key"))
	require.NoError(t, err)

	var resp macrosdk.AuthResponse
	status, _ := e.do(t, http.MethodPost, "/auth/google", "", map[string]string{"idToken": idToken}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "eve@example.com", resp.User.Email)
	assert.True(t, resp.User.Verified)

	status, _ = e.do(t, http.MethodPost, "/auth/google", "", map[string]string{"idToken": "not-a-jwt"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuth_OTPRateLimit(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.OTPRate = "2-M" })

	for range 2 {
		status, _ := e.do(t, http.MethodPost, "/auth/otp/resend", "", map[string]string{"email": "x@example.com"}, nil)
		assert.Equal(t, http.StatusOK, status)
	}
	status, msg := e.do(t, http.MethodPost, "/auth/otp/resend", "", map[string]string{"email": "x@example.com"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, msg)
}

func TestMealPlans(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Fay", "fay@example.com", "password-1")
	require.NoError(t, err)
	token := e.login(t, "fay@example.com", "password-1").AccessToken

	var generated macrosdk.MealPlanResponse
	status, _ := e.do(t, http.MethodPost, "/mealPlans/generate", token, map[string]any{
		"week_start": "2026-10-12", "diet_type": "vegan", "meals_per_day": 4, "daily_calories_goal": 2400,
	}, &generated)
	require.Equal(t, http.StatusOK, status)

	plan := generated.MealPlan
	assert.NotEmpty(t, plan.ID)
	require.Len(t, plan.Days, 7)
	assert.Equal(t, "2026-10-12", plan.Days[0].Date)
	assert.Equal(t, "2026-10-18", plan.Days[6].Date)
	for _, day := range plan.Days {
		require.Len(t, day.Meals, 4)
		assert.InDelta(t, 2400, day.Totals().Calories, 5)
		for _, meal := range day.Meals {
			for _, food := range meal.Foods {
				assert.NotContains(t, []string{"chicken breast", "eggs", "greek yogurt", "salmon fillet", "lean beef"}, food.Name)
			}
		}
	}

	status, _ = e.do(t, http.MethodPost, "/mealPlans/generate", token, map[string]any{"week_start": "2026-10-19"}, nil)
	require.Equal(t, http.StatusOK, status)

	var list macrosdk.MealPlansResponse
	status, _ = e.do(t, http.MethodPost, "/mealPlans/get", token, map[string]string{"week_start": "2026-10-12"}, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.MealPlans, 1)
	assert.Equal(t, plan.ID, list.MealPlans[0].ID)

	status, _ = e.do(t, http.MethodPost, "/mealPlans/get", token, map[string]string{}, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list.MealPlans, 2)

	before := plan.Days[0].Meals[0]
	var regenerated macrosdk.MealPlanResponse
	status, _ = e.do(t, http.MethodPost, "/mealPlans/regenerate", token, map[string]any{
		"plan_id": plan.ID, "date": "2026-10-12", "meal_name": before.MealName,
	}, &regenerated)
	require.Equal(t, http.StatusOK, status)
	after := regenerated.MealPlan.Days[0].Meals[0]
	assert.NotEqual(t, before.Foods, after.Foods)
	assert.InDelta(t, before.MacroTarget.Calories, after.Macros.Calories, 2)

	status, _ = e.do(t, http.MethodPost, "/mealPlans/regenerate", token, map[string]any{
		"plan_id": "missing", "date": "2026-10-12", "meal_name": "breakfast",
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(t, http.MethodPost, "/mealPlans/generate", token, map[string]any{"week_start": "2026-10-12", "diet_type": "carnivore"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = e.do(t, http.MethodPost, "/mealPlans/generate", token, map[string]any{"week_start": "12/10/2026"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfileAndPersonalization(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Gus", "gus@example.com", "password-1")
	require.NoError(t, err)
	token := e.login(t, "gus@example.com", "password-1").AccessToken

	var updated macrosdk.ProfileResponse
	status, _ := e.do(t, http.MethodPut, "/profile/update", token, map[string]any{
		"age": 30, "gender": "male", "weight": 80, "height": 180, "activity_level": "moderate", "goal": "lose",
	}, &updated)
	require.Equal(t, http.StatusOK, status)
	// (10*80 + 6.25*180 - 5*30 + 5) * 1.55 - 500
	assert.InDelta(t, 2259, updated.Profile.DailyMacros.Calories, 1)
	assert.Equal(t, "Gus", updated.Profile.Name)

	status, _ = e.do(t, http.MethodPut, "/profile/update", token, map[string]any{"age": 4}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = e.do(t, http.MethodPut, "/profile/update", token, map[string]any{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = e.do(t, http.MethodPost, "/personalization/save", token, map[string]any{
		"answers": []map[string]any{{"question": "goal", "values": []string{"lose weight"}}},
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, http.MethodPost, "/personalization/save", token, map[string]any{"answers": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChat(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.srv.AddUser("Hal", "hal@example.com", "password-1")
	require.NoError(t, err)
	token := e.login(t, "hal@example.com", "password-1").AccessToken

	var sent macrosdk.ChatSendResponse
	status, _ := e.do(t, http.MethodPost, "/chat/send", token, map[string]string{"message": "How much protein?"}, &sent)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, macrosdk.RoleAssistant, sent.Reply.Role)
	assert.Contains(t, sent.Reply.Content, "protein")

	status, _ = e.do(t, http.MethodPost, "/chat/send", token, map[string]string{"message": "hello"}, nil)
	require.Equal(t, http.StatusOK, status)

	var history macrosdk.ChatHistoryResponse
	status, _ = e.do(t, http.MethodGet, "/chat/history", token, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.Messages, 4)
	assert.Equal(t, macrosdk.RoleUser, history.Messages[0].Role)

	status, _ = e.do(t, http.MethodGet, "/chat/history?limit=1", token, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, macrosdk.RoleAssistant, history.Messages[0].Role)

	status, _ = e.do(t, http.MethodGet, "/chat/history?limit=abc", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	status, _ := e.do(t, http.MethodGet, "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}
