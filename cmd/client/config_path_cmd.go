package main

import (
	"fmt"

	"github.com/macropath/macropath/internal/client/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConfigPathCmd())
}

func newConfigPathCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "config-path",
		Short: "Print the config file MacroPath reads",
		Long:  "Print the config file MacroPath reads. With --all, also print where credentials and logs are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !all {
				_, err := fmt.Fprintln(out, resolveConfigPath(cmd))
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			printKV(out,
				[2]string{"Config", cfg.Path},
				[2]string{"Store", storeLabel(cfg.StoreKind, cfg.StorePath)},
				[2]string{"Log", config.DefaultLogFilePath},
			)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also print the credential store and log file")
	return cmd
}
