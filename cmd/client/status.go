package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang-jwt/jwt/v5"
	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/utils"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				printSession(ctx, cmd.OutOrStdout(), a)
				return nil
			})
		},
	}
}

// tokenClaims is the subset of the api's jwt claims the cli shows. Tokens
// are opaque to the gateway; this is display only.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

type tokenInfo struct {
	Email     string
	ExpiresAt time.Time
	Opaque    bool
}

// describeToken reads the claims without verifying the signature.
func describeToken(token string) tokenInfo {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return tokenInfo{Opaque: true}
	}

	info := tokenInfo{Email: claims.Email}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

func expiryText(info tokenInfo, now time.Time) string {
	switch {
	case info.Opaque:
		return lightGray.Render("opaque")
	case info.ExpiresAt.IsZero():
		return lightGray.Render("no expiry")
	case info.ExpiresAt.Before(now):
		return red.Render("expired " + humanize.RelTime(info.ExpiresAt, now, "ago", "from now"))
	}
	return green.Render("expires " + humanize.RelTime(info.ExpiresAt, now, "ago", "from now"))
}

func printSession(ctx context.Context, w io.Writer, a *app) {
	rows := [][2]string{
		{"Server", a.cfg.ServerURL},
		{"Config", a.cfg.Path},
		{"Store", storeLabel(a.cfg.StoreKind, a.cfg.StorePath)},
	}

	pair, ok, err := a.sdk.Auth.Session(ctx)
	switch {
	case err != nil:
		rows = append(rows, [2]string{"Session", red.Render(err.Error())})
	case !ok:
		rows = append(rows, [2]string{"Session", yellow.Render("logged out")})
	default:
		rows = append(rows, sessionRows(pair, time.Now())...)
	}

	printKV(w, rows...)
}

func sessionRows(pair credstore.Pair, now time.Time) [][2]string {
	access := describeToken(pair.AccessToken)
	refresh := describeToken(pair.RefreshToken)

	email := access.Email
	if email == "" {
		email = refresh.Email
	}

	rows := [][2]string{{"Session", green.Render("logged in")}}
	if email != "" {
		rows = append(rows, [2]string{"Email", email})
	}
	return append(rows,
		[2]string{"Access", fmt.Sprintf("%s  %s", utils.MaskSecret(pair.AccessToken), expiryText(access, now))},
		[2]string{"Refresh", fmt.Sprintf("%s  %s", utils.MaskSecret(pair.RefreshToken), expiryText(refresh, now))},
	)
}

func storeLabel(kind, path string) string {
	if kind == string(credstore.KindMemory) || path == "" {
		return kind
	}
	return fmt.Sprintf("%s (%s)", kind, path)
}
