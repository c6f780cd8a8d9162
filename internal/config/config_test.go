package config

import (
	"os"
	"path/filepath"
	"testing"

	utilviper "github.com/clientctl/clientctl/internal/util/viper"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiledConfig_ProfileEnvWithDashes(t *testing.T) {
	t.Setenv("CLIENTCTL_TEAM_A_B_C_DIRECT_API_KEY", "token-123")

	profile := "team-a-b-c"
	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set(profile, map[string]any{})

	cfg := BuildProfiledConfig(profile, "nonexistent.yaml", mainv)

	require.Equal(t, "token-123", cfg.GetString(DirectAPIKeyConfigPath))
}

func TestBuildProfiledConfig_MissingProfileReadsEnv(t *testing.T) {
	t.Setenv("CLIENTCTL_STAGING_PAGE_SIZE", "25")

	mainv := utilviper.NewViper("nonexistent.yaml")
	cfg := BuildProfiledConfig("staging", "nonexistent.yaml", mainv)

	require.Equal(t, 25, cfg.GetIntOrElse(PageSizeConfigPath, DefaultPageSize))
	require.Equal(t, DefaultRelayBaseURL, cfg.GetStringOrElse(RelayBaseURLConfigPath, DefaultRelayBaseURL))
}

func TestGetConfigInitializesDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := GetDefaultConfigFilePath()
	require.NoError(t, err)

	cfg, err := GetConfig(path, "default", path)
	require.NoError(t, err)
	require.Equal(t, "default", cfg.GetProfile())
	require.Equal(t, DefaultPageSize, cfg.GetInt(PageSizeConfigPath))
	require.Equal(t, DefaultRelayBaseURL, cfg.GetString(RelayBaseURLConfigPath))

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestGetConfigRejectsMissingExplicitPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := GetConfig(missing, "default", "/some/other/default.yaml")
	require.Error(t, err)
}
