package cmd

import (
	"context"
	"log/slog"

	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/httpclient"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/clientctl/clientctl/internal/util"
)

// TransportFactory builds the records adapter for a command invocation.
type TransportFactory func(ctx context.Context, cfg config.Hook, logger *slog.Logger) (transport.Adapter, error)

type transportFactoryKey struct{}

// TransportFactoryKey stores a TransportFactory on the command context.
var TransportFactoryKey = transportFactoryKey{}

// DefaultTransportFactory selects direct mode when a complete credential
// bundle is available (credentials file overlaid with direct.* keys) and the
// relay otherwise. A relay config document that cannot be loaded leaves the
// configured relay base URL in place.
func DefaultTransportFactory(ctx context.Context, cfg config.Hook, logger *slog.Logger) (transport.Adapter, error) {
	doer := httpclient.NewLoggingHTTPClient(logger)

	creds, err := transport.LoadCredentials(cfg.GetString(config.DirectCredentialsFileConfigPath))
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	creds = transport.Credentials{
		APIKey:    util.FirstNonEmpty(cfg.GetString(config.DirectAPIKeyConfigPath), creds.APIKey),
		BaseID:    util.FirstNonEmpty(cfg.GetString(config.DirectBaseIDConfigPath), creds.BaseID),
		TableName: util.FirstNonEmpty(cfg.GetString(config.DirectTableNameConfigPath), creds.TableName),
	}

	relayBaseURL := cfg.GetStringOrElse(config.RelayBaseURLConfigPath, config.DefaultRelayBaseURL)
	if !creds.Complete() {
		override, err := transport.LoadRelayOverride(ctx, doer, cfg.GetString(config.RelayConfigConfigPath))
		switch {
		case err != nil:
			logger.Warn("relay config not loaded, keeping configured base URL",
				"error", err, "base_url", relayBaseURL)
		case override != "":
			relayBaseURL = override
		}
	}

	adapter := transport.New(transport.Settings{
		RelayBaseURL:  relayBaseURL,
		DirectBaseURL: cfg.GetStringOrElse(config.DirectBaseURLConfigPath, config.DefaultDirectBaseURL),
		Credentials:   creds,
		Doer:          doer,
	})
	logger.Debug("transport selected", "mode", adapter.Mode(), "relay_base_url", relayBaseURL)
	return adapter, nil
}
