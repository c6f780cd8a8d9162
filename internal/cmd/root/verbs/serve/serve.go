package serve

import (
	"context"
	"fmt"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/httpclient"
	"github.com/clientctl/clientctl/internal/relay"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Verb = verbs.Serve

	listenAddressFlagName = "listen-address"
	staticDirFlagName     = "static-dir"
	publicBaseURLFlagName = "public-base-url"
)

var (
	serveShort = "Run the relay service"

	serveLong = normalizers.LongDesc(`
Run the relay that holds the table service credential and exposes the client
records under /api/clients, together with the web front end.

The credential is read from AIRTABLE_API_KEY, AIRTABLE_BASE_ID and
AIRTABLE_TABLE_NAME. Missing values are logged as errors but the relay still
starts; calls to the table service then fail. PORT selects the port (default
3000) unless --listen-address is given.`)

	serveExamples = normalizers.Examples(`
		# Serve on the PORT from the environment
		%[1]s serve
		# Serve local assets and publish a relay URL to front ends hosted elsewhere
		%[1]s serve --listen-address 127.0.0.1:8080 --static-dir ./public --public-base-url https://relay.example.com/api`)
)

func NewServeCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:     Verb.String(),
		Short:   serveShort,
		Long:    serveLong,
		Example: serveExamples,
		Aliases: []string{"relay"},
		Args:    verbs.NoPositionalArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}

	c.Flags().String(listenAddressFlagName, "",
		fmt.Sprintf(`Address to listen on, overriding PORT.
- Config path: [ %s ]`, config.ServeListenAddressConfigPath))
	c.Flags().String(staticDirFlagName, "",
		fmt.Sprintf(`Directory of front end assets served instead of the built-in page.
- Config path: [ %s ]`, config.ServeStaticDirConfigPath))
	c.Flags().String(publicBaseURLFlagName, "",
		fmt.Sprintf(`Relay base URL published to front ends through /config.json.
- Config path: [ %s ]`, config.ServePublicBaseURLConfigPath))

	return c, nil
}

func bindFlags(c *cobra.Command, args []string) error {
	cfg, err := cmd.BuildHelper(c, args).GetConfig()
	if err != nil {
		return err
	}
	for flag, path := range map[string]string{
		listenAddressFlagName: config.ServeListenAddressConfigPath,
		staticDirFlagName:     config.ServeStaticDirConfigPath,
		publicBaseURLFlagName: config.ServePublicBaseURLConfigPath,
	} {
		if err := cfg.BindFlag(path, c.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// settingsFrom reads the relay environment and overlays the serve config.
func settingsFrom(cfg config.Hook, env *viper.Viper) relay.Settings {
	s := relay.SettingsFromEnv(env)
	s.ListenAddress = cfg.GetString(config.ServeListenAddressConfigPath)
	s.StaticDir = cfg.GetString(config.ServeStaticDirConfigPath)
	s.PublicBaseURL = cfg.GetString(config.ServePublicBaseURLConfigPath)
	s.UpstreamBaseURL = cfg.GetString(config.DirectBaseURLConfigPath)
	return s
}

func run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}

	settings := settingsFrom(cfg, viper.New())
	server, err := relay.New(settings, httpclient.NewLoggingHTTPClient(logger), logger)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	if err := server.ListenAndServe(helper.GetContext()); err != nil {
		return cmd.PrepareExecutionError("Relay stopped", err, helper.GetCmd(),
			"listen_address", settings.Addr())
	}
	return nil
}
