package gateway

import (
	"context"
	"log/slog"
)

// Notifier is told when a session cannot be recovered. The view layer shows
// a notice and routes the user to login.
type Notifier interface {
	SessionExpired(ctx context.Context, err error)
}

type NotifierFunc func(ctx context.Context, err error)

func (f NotifierFunc) SessionExpired(ctx context.Context, err error) {
	f(ctx, err)
}

type logNotifier struct{}

func (logNotifier) SessionExpired(ctx context.Context, err error) {
	slog.WarnContext(ctx, "session expired, login required", "error", err)
}
