package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const (
	bearerPrefix = "Bearer "
	authHeader   = "Authorization"
	userIDKey    = "userID"
)

// jwtAuth rejects expired or forged access tokens with 403, the status the
// client answers with a token refresh. A missing token is a plain 401.
func jwtAuth(svc *AuthService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value := ctx.GetHeader(authHeader)
		if value == "" {
			abortWithMessage(ctx, http.StatusUnauthorized, "authorization header is missing")
			return
		}

		token, ok := strings.CutPrefix(value, bearerPrefix)
		if !ok || token == "" {
			abortWithMessage(ctx, http.StatusUnauthorized, "authorization header format must be Bearer {token}")
			return
		}

		claims, err := svc.ValidateAccessToken(ctx, token)
		if errors.Is(err, ErrTokenExpired) {
			abortWithMessage(ctx, http.StatusForbidden, "token expired")
			return
		} else if err != nil {
			_ = ctx.Error(err)
			abortWithMessage(ctx, http.StatusForbidden, "invalid token")
			return
		}

		ctx.Set(userIDKey, claims.Subject)
		ctx.Next()
	}
}

func rateLimiter(formattedRate string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, err
	}

	// one store per server so test servers do not share budgets
	l := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(
		l,
		mgin.WithLimitReachedHandler(func(ctx *gin.Context) {
			abortWithMessage(ctx, http.StatusTooManyRequests, "too many requests, try again later")
		}),
		mgin.WithErrorHandler(func(ctx *gin.Context, err error) {
			abortWithMessage(ctx, http.StatusInternalServerError, err.Error())
		}),
	), nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Macropath-Version", "X-Macropath-Device-Id"},
	})
}

func gzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths([]string{"/healthz"}))
}

func securityHeaders() gin.HandlerFunc {
	return secure.New(secure.Config{
		IsDevelopment:      true,
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
	})
}

func abortWithMessage(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"message": message})
}

func userID(ctx *gin.Context) string {
	return ctx.GetString(userIDKey)
}
