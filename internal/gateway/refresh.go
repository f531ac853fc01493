package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/utils"
)

const refreshPath = "/auth/refresh"

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges the stored refresh token for a new pair and stores both.
// Every failure wraps ErrSessionExpired; the call is never retried.
func (g *Gateway) Refresh(ctx context.Context) error {
	if g.flight == nil {
		return g.refresh(ctx)
	}

	// the shared refresh outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := g.flight.DoChan(refreshPath, func() (any, error) {
		return nil, g.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrSessionExpired, context.Cause(ctx))
	case res := <-ch:
		if res.Shared {
			slog.DebugContext(ctx, "joined in-flight token refresh")
		}
		return res.Err
	}
}

func (g *Gateway) refresh(ctx context.Context) error {
	refreshToken, err := g.store.Get(ctx, credstore.KeyRefreshToken)
	if errors.Is(err, credstore.ErrNotFound) || (err == nil && refreshToken == "") {
		return fmt.Errorf("%w: no refresh token", ErrSessionExpired)
	} else if err != nil {
		slog.WarnContext(ctx, "credential store read failed", "key", credstore.KeyRefreshToken, "error", err)
		return fmt.Errorf("%w: read refresh token: %w", ErrSessionExpired, err)
	}

	payload, err := jsonMarshal(&RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("%w: encode refresh request: %w", ErrSessionExpired, err)
	}

	res, err := g.refresher.R().
		SetContext(ctx).
		SetBodyBytes(payload).
		Post(refreshPath)
	if err != nil {
		return fmt.Errorf("%w: refresh request: %w", ErrSessionExpired, err)
	}

	body := res.Bytes()
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: refresh rejected: %d %s", ErrSessionExpired, res.StatusCode, errorMessage(body, res.StatusCode))
	}

	var tokens RefreshResponse
	if err := jsonUnmarshal(body, &tokens); err != nil {
		return fmt.Errorf("%w: decode refresh response: %w", ErrSessionExpired, err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return fmt.Errorf("%w: refresh response missing tokens: %s", ErrSessionExpired, errorMessage(body, res.StatusCode))
	}

	pair := credstore.Pair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
	if err := credstore.SavePair(ctx, g.store, pair); err != nil {
		slog.WarnContext(ctx, "credential store write failed", "error", err)
		return fmt.Errorf("%w: persist tokens: %w", ErrSessionExpired, err)
	}

	slog.InfoContext(ctx, "access token refreshed", "access", utils.MaskSecret(pair.AccessToken))
	return nil
}
