package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/macropath/macropath/internal/client/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "path to config file")
	return cmd
}

func withHome(t *testing.T) string {
	t.Helper()
	old := home
	home = t.TempDir()
	t.Cleanup(func() { home = old })
	return home
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("flag beats env", func(t *testing.T) {
		cmd := newTestCmd()
		t.Setenv("MACROPATH_CONFIG_PATH", "/tmp/env/config.json")
		require.NoError(t, cmd.PersistentFlags().Set("config", "/tmp/flag/config.json"))

		assert.Equal(t, "/tmp/flag/config.json", resolveConfigPath(cmd))
	})

	t.Run("env when no flag", func(t *testing.T) {
		t.Setenv("MACROPATH_CONFIG_PATH", "/tmp/env/config.json")
		assert.Equal(t, "/tmp/env/config.json", resolveConfigPath(newTestCmd()))
	})

	t.Run("existing file", func(t *testing.T) {
		dir := withHome(t)
		t.Setenv("MACROPATH_CONFIG_PATH", "")

		existing := filepath.Join(dir, ".config", "macropath", "config.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
		require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o644))

		assert.Equal(t, existing, resolveConfigPath(newTestCmd()))
	})

	t.Run("default", func(t *testing.T) {
		withHome(t)
		t.Setenv("MACROPATH_CONFIG_PATH", "")
		assert.Equal(t, config.DefaultConfigPath, resolveConfigPath(newTestCmd()))
	})
}
