package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/macropath/macropath/internal/client/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootForTest() *cobra.Command {
	cmd := &cobra.Command{Use: "macropath"}
	addGlobalFlags(cmd)
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	withHome(t)
	t.Setenv("MACROPATH_CONFIG_PATH", "")

	cfg, err := loadConfig(newRootForTest())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, config.DefaultStoreKind, cfg.StoreKind)
	assert.Equal(t, config.DefaultRequestTimeout, cfg.RequestTimeout)
	assert.False(t, cfg.RefreshSingleFlight)
	assert.Equal(t, config.DefaultConfigPath, cfg.Path)
}

func TestLoadConfigEnv(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.test.json")

	t.Setenv("MACROPATH_CONFIG_PATH", cfgPath)
	t.Setenv("MACROPATH_EMAIL", "test@example.com")
	t.Setenv("MACROPATH_SERVER_URL", "https://api.macropath.test")
	t.Setenv("MACROPATH_STORE_KIND", "sqlite")
	t.Setenv("MACROPATH_STORE_PATH", filepath.Join(tmp, "creds.db"))
	t.Setenv("MACROPATH_STORE_SECRET", "env-secret")
	t.Setenv("MACROPATH_REFRESH_SINGLE_FLIGHT", "true")
	t.Setenv("MACROPATH_REQUEST_TIMEOUT", "5s")

	cfg, err := loadConfig(newRootForTest())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, cfgPath, cfg.Path)
	assert.Equal(t, "test@example.com", cfg.Email)
	assert.Equal(t, "https://api.macropath.test", cfg.ServerURL)
	assert.Equal(t, "sqlite", cfg.StoreKind)
	assert.Equal(t, filepath.Join(tmp, "creds.db"), cfg.StorePath)
	assert.Equal(t, "env-secret", cfg.StoreSecret)
	assert.True(t, cfg.RefreshSingleFlight)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigJSON(t *testing.T) {
	t.Setenv("MACROPATH_CONFIG_PATH", "")

	tmp := t.TempDir()
	cfgFile := filepath.Join(tmp, "dummy.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`{
	"email": "json@example.com",
	"server_url": "https://json.macropath.test",
	"store_kind": "memory",
	"refresh_single_flight": true,
	"request_timeout": "12s"
}`), 0o600))

	root := newRootForTest()
	require.NoError(t, root.PersistentFlags().Set("config", cfgFile))

	cfg, err := loadConfig(root)
	require.NoError(t, err)

	assert.Equal(t, cfgFile, cfg.Path)
	assert.Equal(t, "json@example.com", cfg.Email)
	assert.Equal(t, "https://json.macropath.test", cfg.ServerURL)
	assert.Equal(t, "memory", cfg.StoreKind)
	assert.True(t, cfg.RefreshSingleFlight)
	assert.Equal(t, 12*time.Second, cfg.RequestTimeout)
}

func TestLoadConfigFlagBeatsFile(t *testing.T) {
	t.Setenv("MACROPATH_CONFIG_PATH", "")
	t.Setenv("MACROPATH_SERVER_URL", "")

	cfgFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`{"server_url": "https://file.macropath.test"}`), 0o600))

	root := newRootForTest()
	require.NoError(t, root.PersistentFlags().Set("config", cfgFile))
	require.NoError(t, root.PersistentFlags().Set("server", "http://localhost:9999"))

	cfg, err := loadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.ServerURL)
}

func TestLoadConfigBadJSON(t *testing.T) {
	t.Setenv("MACROPATH_CONFIG_PATH", "")

	cfgFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`{nope`), 0o600))

	root := newRootForTest()
	require.NoError(t, root.PersistentFlags().Set("config", cfgFile))

	_, err := loadConfig(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config read")
}
