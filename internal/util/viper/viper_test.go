package viper

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewViperEnvKeyReplacer(t *testing.T) {
	t.Setenv("CLIENTCTL_LOG_LEVEL", "debug")
	t.Setenv("CLIENTCTL_RELAY_BASE_URL", "https://relay.example.com/api")

	v := NewViper("nonexistent.yaml")

	require.Equal(t, "debug", v.GetString("log-level"))
	require.Equal(t, "https://relay.example.com/api", v.GetString("relay.base-url"))
}

func TestNewViperEnvKeyReplacerProfileWithDashes(t *testing.T) {
	t.Setenv("CLIENTCTL_TEAM_A_DIRECT_API_KEY", "pat-123")

	v := NewViper("nonexistent.yaml")
	v.Set("team-a", map[string]any{})

	profile := v.Sub("team-a")
	require.NotNil(t, profile)
	require.Equal(t, "pat-123", profile.GetString("direct.api-key"))
}

func TestInitializeDefaultViperWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clientctl", "config.yaml")

	v, err := InitializeDefaultViper(map[string]any{
		"default": map[string]any{"page-size": 10},
	}, path)
	require.NoError(t, err)
	require.Equal(t, 10, v.GetInt("default.page-size"))

	reloaded, err := NewViperE(path)
	require.NoError(t, err)
	require.Equal(t, 10, reloaded.GetInt("default.page-size"))
}
