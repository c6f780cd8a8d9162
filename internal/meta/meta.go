package meta

const (
	// CLIName is the binary name used in help text, config paths and env prefixes.
	CLIName = "clientctl"
	// EnvPrefix prefixes every environment variable read through viper.
	EnvPrefix = "CLIENTCTL"
)
