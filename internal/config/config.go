package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clientctl/clientctl/internal/meta"
	"github.com/clientctl/clientctl/internal/util/viper"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var defaultConfigFileName = "config.yaml"

// Well known configuration paths shared by commands.
const (
	OutputConfigPath   = "output"
	LogLevelConfigPath = "log-level"
	LogFileConfigPath  = "log-file"
	ThemeConfigPath    = "theme"
	PageSizeConfigPath = "page-size"

	RelayBaseURLConfigPath = "relay.base-url"
	RelayConfigConfigPath  = "relay.config"

	DirectBaseURLConfigPath         = "direct.base-url"
	DirectAPIKeyConfigPath          = "direct.api-key"
	DirectBaseIDConfigPath          = "direct.base-id"
	DirectTableNameConfigPath       = "direct.table-name"
	DirectCredentialsFileConfigPath = "direct.credentials-file"

	ServeListenAddressConfigPath = "serve.listen-address"
	ServeStaticDirConfigPath     = "serve.static-dir"
	ServePublicBaseURLConfigPath = "serve.public-base-url"
)

// Defaults applied when neither flags, env nor the config file provide a value.
const (
	DefaultRelayBaseURL  = "http://localhost:3000/api"
	DefaultDirectBaseURL = "https://api.airtable.com/v0"
	DefaultPageSize      = 10
	DefaultLogLevel      = "info"
)

// Returns the expanded default config path depending on what
// environment variables are set. If XDG_CONFIG_HOME is set,
// the default is $XDG_CONFIG_HOME/clientctl,
// otherwise the default is os.UserHomeDir()/.config/clientctl.
// If these values are not set, an error is returned.
func GetDefaultConfigPath() (string, error) {
	val, set := os.LookupEnv("XDG_CONFIG_HOME")
	if !set || val == "" {
		var err error
		val, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
		val = filepath.Join(val, ".config")
	}
	val = filepath.Join(val, meta.CLIName)
	return os.ExpandEnv(val), nil
}

func GetDefaultConfigFilePath() (string, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(path, defaultConfigFileName), nil
}

// ExpandDefaultConfigFilePath is GetDefaultConfigFilePath for flag defaults,
// where an error can only be reported as an empty value.
func ExpandDefaultConfigFilePath() string {
	path, err := GetDefaultConfigFilePath()
	if err != nil {
		return ""
	}
	return path
}

// GetConfig returns the configuration for this instance of the CLI
func GetConfig(path string, profile string, defaultConfigFilePath string) (*ProfiledConfig, error) {
	var rv *ProfiledConfig
	var err error

	path = os.ExpandEnv(path)

	_, err = os.Stat(path)
	if err == nil {
		// If the user provides a valid file path, we should strictly load it or fail immediately
		vip, e := viper.NewViperE(path)
		if e == nil {
			rv = BuildProfiledConfig(profile, path, vip)
		} else {
			err = e
		}
	} else if path == defaultConfigFilePath {
		// A missing default file is initialized with the default profile
		var vip *v.Viper
		vip, err = viper.InitializeDefaultViper(getDefaultConfig(profile, path), path)
		if err == nil {
			rv = BuildProfiledConfig(profile, path, vip)
		}
	} else {
		err = fmt.Errorf("the provided config file path does not exist")
	}
	return rv, err
}

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// Config is a global instance of the Key type
var ConfigKey = Key{}

// Hook provides a generalization of the Viper interface
// and restricts commands to profile scoped reads and overrides
type Hook interface {
	// GetString returns a string value from the configuration
	GetString(key string) string
	// GetBool returns a boolean value from the configuration
	GetBool(key string) bool
	// GetInt returns an integer value from the configuration
	GetInt(key string) int
	// GetIntOrElse returns an integer value from the configuration or a default
	GetIntOrElse(key string, orElse int) int
	// GetStringOrElse returns a non-blank string value from the configuration or a default
	GetStringOrElse(key string, orElse string) string
	// SetString sets an override for a given string
	SetString(key string, value string)
	// Set sets an override for a given key
	Set(k string, v any)
	// BindFlag takes a specific configuration path and
	// binds it to a specific flag
	BindFlag(configPath string, f *pflag.Flag) error
	// The profile for this configuration
	GetProfile() string
	// The file path used to load this configuration
	GetPath() string
}

// ProfiledConfig is a Viper but with an associated profile ProfileName
//
//	allows for extraction of the profile specific sub-configuration
//	and implements the Hook interface for more restricted interactions
//	with the configuration system
type ProfiledConfig struct {
	*v.Viper
	subViper    *v.Viper
	ProfileName string
	Path        string
}

func (p *ProfiledConfig) GetProfile() string {
	return p.ProfileName
}

func (p *ProfiledConfig) GetString(key string) string {
	return p.subViper.GetString(key)
}

func (p *ProfiledConfig) GetBool(key string) bool {
	return p.subViper.GetBool(key)
}

func (p *ProfiledConfig) GetInt(key string) int {
	return p.subViper.GetInt(key)
}

func (p *ProfiledConfig) GetIntOrElse(key string, orElse int) int {
	if p.subViper.IsSet(key) {
		return p.subViper.GetInt(key)
	}
	return orElse
}

func (p *ProfiledConfig) GetStringOrElse(key string, orElse string) string {
	if s := strings.TrimSpace(p.subViper.GetString(key)); s != "" {
		return s
	}
	return orElse
}

func (p *ProfiledConfig) BindFlag(configPath string, f *pflag.Flag) error {
	return p.subViper.BindPFlag(configPath, f)
}

func (p *ProfiledConfig) SetString(k string, v string) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) Set(k string, v any) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) GetPath() string {
	return p.Path
}

func BuildProfiledConfig(profile string, path string, mainv *v.Viper) *ProfiledConfig {
	subv := mainv.Sub(profile)
	if subv == nil {
		// in this case the main viper is valid, but there is no
		// key or data under the key for this profile name
		subv = v.New()
		// Profile specific environment variables still apply
		// even when the profile doesn't exist in the config file
		envPrefix := meta.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(profile, "-", "_"))
		viper.ConfigureEnvVars(subv, envPrefix)
	}

	rv := &ProfiledConfig{
		Viper:       mainv,
		ProfileName: profile,
		subViper:    subv,
		Path:        path,
	}
	return rv
}

func getDefaultConfig(profileName, _ string) map[string]any {
	defaultConfig := map[string]any{
		profileName: map[string]any{
			OutputConfigPath:   "text",
			LogLevelConfigPath: DefaultLogLevel,
			PageSizeConfigPath: DefaultPageSize,
			"relay": map[string]any{
				"base-url": DefaultRelayBaseURL,
			},
			"direct": map[string]any{
				"base-url": DefaultDirectBaseURL,
			},
		},
	}
	return defaultConfig
}
