package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/macropath/macropath/internal/mockapi"
	"github.com/macropath/macropath/internal/version"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MACROPATH_MOCK"

var rootCmd = &cobra.Command{
	Use:     "mockserver",
	Short:   "MacroPath mock api for local development",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		srv, err := mockapi.New(cfg)
		if err != nil {
			return err
		}

		if seed, _ := cmd.Flags().GetStringArray("user"); len(seed) > 0 {
			if err := seedUsers(srv, seed); err != nil {
				return err
			}
		}

		cmd.SilenceUsage = true
		defer slog.Info("Bye!")
		return srv.Start(cmd.Context())
	},
}

func init() {
	addFlags(rootCmd)
}

func addFlags(cmd *cobra.Command) {
	defaults := mockapi.DefaultConfig()
	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("addr", "a", defaults.Addr, "Address to bind the mock api")
	flags.Duration("access-ttl", defaults.AccessTokenExpiry, "Access token lifetime")
	flags.Duration("refresh-ttl", defaults.RefreshTokenExpiry, "Refresh token lifetime")
	flags.String("otp-rate", defaults.OTPRate, "Otp endpoint rate limit per ip, e.g. 5-M")
	flags.StringArray("user", nil, "Seed a verified user as name:email:password")
	flags.StringP("config", "c", "", "Path to a json config file")
}

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})))
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("mock api", "error", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*mockapi.Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
	}

	defaults := mockapi.DefaultConfig()
	v.SetDefault("token_issuer", defaults.TokenIssuer)
	v.SetDefault("access_token_secret", defaults.AccessTokenSecret)
	v.SetDefault("refresh_token_secret", defaults.RefreshTokenSecret)
	v.SetDefault("otp_expiry", defaults.OTPExpiry)
	v.SetDefault("max_sessions", defaults.MaxSessions)

	v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	v.BindPFlag("access_token_expiry", cmd.Flags().Lookup("access-ttl"))
	v.BindPFlag("refresh_token_expiry", cmd.Flags().Lookup("refresh-ttl"))
	v.BindPFlag("otp_rate", cmd.Flags().Lookup("otp-rate"))

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := defaults
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	return cfg, nil
}

func seedUsers(srv *mockapi.Server, seed []string) error {
	for _, s := range seed {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("user %q: want name:email:password", s)
		}
		user, err := srv.AddUser(parts[0], parts[1], parts[2])
		if err != nil {
			return fmt.Errorf("user %q: %w", parts[1], err)
		}
		slog.Info("seeded user", "email", user.Email, "id", user.ID)
	}
	return nil
}
