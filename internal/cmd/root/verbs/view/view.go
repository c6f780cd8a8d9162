package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/log"
	"github.com/clientctl/clientctl/internal/theme"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	recordsview "github.com/clientctl/clientctl/internal/view"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.View

	searchFlagName = "search"
)

var (
	viewShort = "Browse and edit client records interactively"

	viewLong = normalizers.LongDesc(`
Open the interactive records view. Pages are navigated with n/p, / searches
as you type, e edits the selected row, a adds a client, d deletes after a
confirmation and y copies the record id. ? lists every key.`)

	viewExamples = normalizers.Examples(`
		# Open the records view
		%[1]s view
		# Start filtered, 20 rows per page, with the mono theme
		%[1]s view --search ana --page-size 20 --theme mono`)
)

// NewViewCmd creates the view command which launches the records view.
func NewViewCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:     Verb.String(),
		Short:   viewShort,
		Long:    viewLong,
		Example: viewExamples,
		Aliases: []string{"v", "tui"},
		Args:    verbs.NoPositionalArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return cfg.BindFlag(common.PageSizeConfigPath, c.Flags().Lookup(common.PageSizeFlagName))
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}

	c.Flags().String(searchFlagName, "", "Initial search text.")
	c.Flags().Int(common.PageSizeFlagName, config.DefaultPageSize,
		fmt.Sprintf(`Records per page, clamped to 1..100.
- Config path: [ %s ]`, common.PageSizeConfigPath))

	return c, nil
}

func run(helper cmd.Helper) error {
	streams := helper.GetStreams()
	if !streams.IsInteractive() {
		return &cmd.ConfigurationError{Err: recordsview.ErrNotInteractive}
	}

	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	adapter, err := helper.GetTransport(cfg, logger)
	if err != nil {
		return err
	}

	// the alternate screen owns the terminal until the view exits
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	search, _ := helper.GetCmd().Flags().GetString(searchFlagName)
	logger.Debug("starting records view", "mode", adapter.Mode())

	err = recordsview.Run(helper.GetContext(), streams, adapter,
		recordsview.WithPageSize(cfg.GetIntOrElse(common.PageSizeConfigPath, config.DefaultPageSize)),
		recordsview.WithSearch(search),
		recordsview.WithPalette(theme.Current()),
		recordsview.WithLogger(logger),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return cmd.PrepareExecutionError("Records view failed", err, helper.GetCmd())
	}
	return nil
}
