package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/macropath/macropath/internal/client/config"
	"github.com/macropath/macropath/internal/utils"
	"github.com/macropath/macropath/internal/version"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "MACROPATH"
	configFileName = "config"
)

var (
	home, _      = os.UserHomeDir()
	consoleLevel = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:           "macropath",
	Short:         "MacroPath nutrition and meal planning",
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		consoleLevel.Set(slog.LevelWarn)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || os.Getenv(envPrefix+"_VERBOSE") != "" {
			consoleLevel.Set(slog.LevelDebug)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		showHeader(cmd.OutOrStdout())
		return cmd.Help()
	},
}

func init() {
	addGlobalFlags(rootCmd)
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", config.DefaultConfigPath, "MacroPath config file")
	flags.StringP("server", "s", config.DefaultServerURL, "MacroPath api server")
	flags.String("store", config.DefaultStoreKind, "Credential store (file, sqlite, memory)")
	flags.Bool("verbose", false, "Log debug output to the console")
}

func main() {
	logFile := config.DefaultLogFilePath
	if err := utils.EnsureParent(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	stderrHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stderrHandler, fileHandler)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig merges, lowest first: defaults, the json config file, .env,
// MACROPATH_* environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	// a missing .env is fine
	_ = godotenv.Load()

	configPath := resolveConfigPath(cmd)
	if (cmd.Flag("config") != nil && cmd.Flag("config").Changed) || os.Getenv(envPrefix+"_CONFIG_PATH") != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
	} else {
		v.AddConfigPath(filepath.Join(home, ".macropath"))
		v.AddConfigPath(filepath.Join(home, ".config", "macropath"))
		v.SetConfigName(configFileName)
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return nil, fmt.Errorf("config read '%s': %w", configPath, err)
		}
	}

	v.SetDefault("server_url", config.DefaultServerURL)
	v.SetDefault("store_kind", config.DefaultStoreKind)
	v.SetDefault("store_path", config.DefaultStorePath)
	v.SetDefault("request_timeout", config.DefaultRequestTimeout)

	if f := cmd.Flag("server"); f != nil {
		v.BindPFlag("server_url", f)
	}
	if f := cmd.Flag("store"); f != nil {
		v.BindPFlag("store_kind", f)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for _, key := range []string{"email", "store_secret", "refresh_single_flight"} {
		v.BindEnv(key)
	}

	cfg := config.Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Path = configPath
	if used := v.ConfigFileUsed(); used != "" && utils.FileExists(used) {
		cfg.Path = used
	}

	return cfg, nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", red.Bold(true).Render("ERROR:"), err)
}
