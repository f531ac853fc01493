package main

import (
	"os"
	"path/filepath"

	"github.com/macropath/macropath/internal/client/config"
	"github.com/macropath/macropath/internal/utils"
	"github.com/spf13/cobra"
)

// resolveConfigPath picks the config file, in order: the --config flag,
// MACROPATH_CONFIG_PATH, an existing file in a known location, the default.
func resolveConfigPath(cmd *cobra.Command) string {
	if cfgFlag := cmd.Flag("config"); cfgFlag != nil && cfgFlag.Changed {
		return cfgFlag.Value.String()
	}

	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		return envPath
	}

	candidates := []string{
		filepath.Join(home, ".macropath", "config.json"),
		filepath.Join(home, ".config", "macropath", "config.json"),
	}

	for _, candidate := range candidates {
		if utils.FileExists(candidate) {
			return candidate
		}
	}

	return config.DefaultConfigPath
}
