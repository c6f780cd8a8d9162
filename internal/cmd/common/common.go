package common

import (
	"fmt"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/config"
)

// Represents an enum of valid values for the format of the output for this CLI execution
type OutputFormat int

type ColorMode int

const (
	JSON OutputFormat = iota
	YAML
	TEXT
)

const (
	ColorModeAuto ColorMode = iota
	ColorModeAlways
	ColorModeNever
)

const (
	// related to the --output flag
	DefaultOutputFormat = "text"
	OutputFlagName      = "output"
	OutputFlagShort     = "o"
	OutputConfigPath    = config.OutputConfigPath

	// related to the --profile flag
	ProfileFlagName  = "profile"
	ProfileFlagShort = "p"
	DefaultProfile   = "default"

	// related to the --config-file flag
	ConfigFilePathFlagName = "config-file"

	// related to the --log-level and --log-file flags
	LogLevelFlagName   = "log-level"
	LogLevelConfigPath = config.LogLevelConfigPath
	LogFileFlagName    = "log-file"
	LogFileConfigPath  = config.LogFileConfigPath

	// related to the --theme flag
	ThemeFlagName   = "theme"
	ThemeConfigPath = config.ThemeConfigPath

	// related to the --page-size flag
	PageSizeFlagName   = "page-size"
	PageSizeConfigPath = config.PageSizeConfigPath

	// transport selection
	RelayBaseURLFlagName    = "relay-base-url"
	RelayConfigFlagName     = "relay-config"
	DirectBaseURLFlagName   = "direct-base-url"
	CredentialsFileFlagName = "credentials-file"

	// client record fields
	NameFlagName  = "name"
	EmailFlagName = "email"
	PhoneFlagName = "phone"

	DefaultColorMode = "auto"
)

var (
	OutputFormats = []string{"json", "yaml", "text"}
	LogLevels     = []string{"trace", "debug", "info", "warn", "error"}
)

func (of OutputFormat) String() string {
	return [...]string{"json", "yaml", "text"}[of]
}

func OutputFormatStringToIota(format string) (OutputFormat, error) {
	switch format {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "text", "":
		return TEXT, nil
	default:
		return TEXT, fmt.Errorf("invalid output format %q, must be one of %v", format, OutputFormats)
	}
}

func (cm ColorMode) String() string {
	switch cm {
	case ColorModeAlways:
		return "always"
	case ColorModeNever:
		return "never"
	default:
		return "auto"
	}
}

func ColorModeStringToIota(mode string) (ColorMode, error) {
	switch mode {
	case "auto", "":
		return ColorModeAuto, nil
	case "always":
		return ColorModeAlways, nil
	case "never":
		return ColorModeNever, nil
	default:
		return ColorModeAuto, fmt.Errorf("invalid color mode %q, must be one of %v", mode,
			[]string{"auto", "always", "never"})
	}
}

// ClientDisplay is the text output row of a client record.
type ClientDisplay struct {
	ID    string
	Name  string
	Email string
	Phone string
}

func DisplayClient(r clients.Record) ClientDisplay {
	return ClientDisplay{
		ID:    r.ID,
		Name:  r.Fields.Name,
		Email: r.Fields.Email,
		Phone: r.Fields.Phone,
	}
}

func DisplayClients(records []clients.Record) []ClientDisplay {
	rows := make([]ClientDisplay, 0, len(records))
	for _, r := range records {
		rows = append(rows, DisplayClient(r))
	}
	return rows
}
