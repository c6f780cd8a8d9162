package relay

import (
	"net"
	"strings"

	"github.com/clientctl/clientctl/internal/tableapi"
	"github.com/spf13/viper"
)

// Environment variables read by the relay process.
const (
	EnvAPIKey    = "AIRTABLE_API_KEY"
	EnvBaseID    = "AIRTABLE_BASE_ID"
	EnvTableName = "AIRTABLE_TABLE_NAME"
	EnvPort      = "PORT"

	DefaultPort      = "3000"
	DefaultTableName = "Clientes"
)

// Settings configures a relay Server.
type Settings struct {
	APIKey    string
	BaseID    string
	TableName string
	Port      string

	// ListenAddress overrides Port when set.
	ListenAddress string
	// StaticDir serves front end assets from disk instead of the embedded page.
	StaticDir string
	// PublicBaseURL is published to front ends through /config.json.
	PublicBaseURL string
	// UpstreamBaseURL is the table service root, tableapi.DefaultBaseURL when empty.
	UpstreamBaseURL string
}

// SettingsFromEnv reads the relay environment through v.
func SettingsFromEnv(v *viper.Viper) Settings {
	if v == nil {
		v = viper.New()
	}
	_ = v.BindEnv("airtable.api-key", EnvAPIKey)
	_ = v.BindEnv("airtable.base-id", EnvBaseID)
	_ = v.BindEnv("airtable.table-name", EnvTableName)
	_ = v.BindEnv("port", EnvPort)
	v.SetDefault("airtable.table-name", DefaultTableName)
	v.SetDefault("port", DefaultPort)

	return Settings{
		APIKey:    strings.TrimSpace(v.GetString("airtable.api-key")),
		BaseID:    strings.TrimSpace(v.GetString("airtable.base-id")),
		TableName: strings.TrimSpace(v.GetString("airtable.table-name")),
		Port:      strings.TrimSpace(v.GetString("port")),
	}
}

// Missing lists the unset environment variables the relay needs to reach
// the table service.
func (s Settings) Missing() []string {
	var missing []string
	if s.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if s.BaseID == "" {
		missing = append(missing, EnvBaseID)
	}
	if s.TableName == "" {
		missing = append(missing, EnvTableName)
	}
	return missing
}

// Addr is the address the relay listens on.
func (s Settings) Addr() string {
	if addr := strings.TrimSpace(s.ListenAddress); addr != "" {
		return addr
	}
	port := strings.TrimSpace(s.Port)
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort("", port)
}

func (s Settings) table() tableapi.Client {
	return tableapi.Client{
		BaseURL: s.UpstreamBaseURL,
		BaseID:  s.BaseID,
		Table:   s.TableName,
		Token:   s.APIKey,
	}
}
