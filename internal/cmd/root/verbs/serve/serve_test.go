package serve

import (
	"context"
	"testing"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/cmdtest"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/relay"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) *cmdtest.Harness {
	t.Helper()
	c, err := NewServeCmd()
	require.NoError(t, err)
	return cmdtest.New(t, c)
}

func TestSettingsFromOverlaysConfig(t *testing.T) {
	t.Setenv(relay.EnvAPIKey, "key")
	t.Setenv(relay.EnvBaseID, "app1")
	t.Setenv(relay.EnvTableName, "Clients")
	t.Setenv(relay.EnvPort, "4000")

	cfg := config.BuildProfiledConfig("default", "", viper.New())
	cfg.Set(config.ServePublicBaseURLConfigPath, "https://relay.example.com/api")
	cfg.Set(config.DirectBaseURLConfigPath, "http://127.0.0.1:9999/v0")

	got := settingsFrom(cfg, viper.New())
	require.Equal(t, relay.Settings{
		APIKey:          "key",
		BaseID:          "app1",
		TableName:       "Clients",
		Port:            "4000",
		PublicBaseURL:   "https://relay.example.com/api",
		UpstreamBaseURL: "http://127.0.0.1:9999/v0",
	}, got)
	require.Equal(t, ":4000", got.Addr())
}

func TestServeStopsWithContext(t *testing.T) {
	t.Setenv(relay.EnvAPIKey, "")
	t.Setenv(relay.EnvBaseID, "")
	t.Setenv(relay.EnvTableName, "")

	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.RunContext(ctx, "serve", "--listen-address", "127.0.0.1:0"))
	require.Contains(t, h.Logs.String(), "missing environment variables")
	require.Contains(t, h.Logs.String(), "relay listening")
}

func TestServeRejectsMissingStaticDir(t *testing.T) {
	h := newHarness(t)

	err := h.Run("serve", "--listen-address", "127.0.0.1:0", "--static-dir", t.TempDir()+"/missing")
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
