package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/macropath/macropath/internal/client/config"
	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/macropath/macropath/internal/state"
	"github.com/macropath/macropath/internal/utils"
	"github.com/spf13/cobra"
)

// app holds everything a command needs to talk to the api.
type app struct {
	cfg     *config.Config
	store   credstore.StoreCloser
	gateway *gateway.Gateway
	sdk     *macrosdk.SDK
	tracker *state.Tracker
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := credstore.Open(credstore.Kind(cfg.StoreKind), cfg.StorePath, cfg.Secret())
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	opts := []gateway.Option{
		gateway.WithNotifier(sessionNotice(cmd.ErrOrStderr())),
		gateway.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.RefreshSingleFlight {
		opts = append(opts, gateway.WithSingleFlightRefresh())
	}

	gw, err := gateway.New(cfg.ServerURL, store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	tracker := state.NewTracker()
	sdk, err := macrosdk.New(gw, store, tracker)
	if err != nil {
		gw.Close()
		store.Close()
		return nil, err
	}

	slog.Debug("app ready",
		"server", cfg.ServerURL,
		"store", cfg.StoreKind,
		"config", cfg.Path,
		"singleFlight", cfg.RefreshSingleFlight,
	)

	return &app{cfg: cfg, store: store, gateway: gw, sdk: sdk, tracker: tracker}, nil
}

func (a *app) Close() {
	a.tracker.Close()
	a.gateway.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("credential store close", "error", err)
	}
}

// withApp builds the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// rememberEmail stores the signed in address in the config file so later
// commands can prefill it.
func (a *app) rememberEmail(email string) {
	email = utils.NormalizeEmail(email)
	if email == "" || email == a.cfg.Email {
		return
	}
	a.cfg.Email = email
	if err := a.cfg.Save(); err != nil {
		slog.Warn("config save", "path", a.cfg.Path, "error", err)
	}
}

func sessionNotice(w io.Writer) gateway.Notifier {
	return gateway.NotifierFunc(func(ctx context.Context, err error) {
		slog.Warn("session expired", "error", err)
		fmt.Fprintf(w, "%s %s\n",
			yellow.Bold(true).Render("Session expired."),
			yellow.Render("Run 'macropath login' to sign in again."),
		)
	})
}
