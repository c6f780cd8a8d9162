package list

import (
	"context"
	"fmt"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/cmd/output/jq"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/clientctl/clientctl/internal/util/pagination"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.List

	searchFlagName = "search"
	offsetFlagName = "offset"
	allFlagName    = "all"
)

var (
	listShort = "List client records"

	listLong = normalizers.LongDesc(`
Use list to retrieve one page of client records.

The search text matches name, email and phone, case-insensitively. The offset
printed with a page (json and yaml output) is the cursor of the next page; pass
it back with --offset to continue. --all follows the cursors to the last page.`)

	listExamples = normalizers.Examples(`
		# First page of clients
		%[1]s list
		# Search by any field, 25 per page
		%[1]s list --search ana --page-size 25
		# Continue from a cursor
		%[1]s list --offset itrXYZ/recABC -o json
		# Only the ids of every client
		%[1]s list --all -o json --jq '.records[].id' -r`)
)

func NewListCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:     Verb.String(),
		Short:   listShort,
		Long:    listLong,
		Example: listExamples,
		Aliases: []string{"ls", "l"},
		Args:    verbs.NoPositionalArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}

	c.Flags().String(searchFlagName, "", "Text to match against name, email and phone.")
	c.Flags().Int(common.PageSizeFlagName, config.DefaultPageSize,
		fmt.Sprintf(`Records per page, clamped to 1..100.
- Config path: [ %s ]`, common.PageSizeConfigPath))
	c.Flags().String(offsetFlagName, "", "Cursor of the page to retrieve, as returned by a previous page.")
	c.Flags().Bool(allFlagName, false, "Follow page cursors and print every matching record.")
	jq.AddFlags(c.Flags())

	c.AddCommand(newThemesCmd())
	c.AddCommand(newProfilesCmd())

	return c, nil
}

func bindFlags(c *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.BindFlag(common.PageSizeConfigPath, c.Flags().Lookup(common.PageSizeFlagName)); err != nil {
		return err
	}
	return jq.BindFlags(cfg, c.Flags())
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

	flags := helper.GetCmd().Flags()
	search, _ := flags.GetString(searchFlagName)
	offset, _ := flags.GetString(offsetFlagName)
	all, _ := flags.GetBool(allFlagName)

	adapter, err := helper.GetTransport(cfg, logger)
	if err != nil {
		return err
	}

	query := transport.ListQuery{
		Search:   search,
		PageSize: cfg.GetIntOrElse(common.PageSizeConfigPath, config.DefaultPageSize),
		Offset:   offset,
	}
	page, err := fetch(helper.GetContext(), adapter, query, all)
	if err != nil {
		return cmd.PrepareExecutionError("Failed to list clients", err, helper.GetCmd(),
			cmd.TransportErrorAttrs(err)...)
	}
	logger.Debug("listed clients", "count", len(page.Records), "has_next", page.Offset != "")

	return output.Render(helper, common.DisplayClients(page.Records), page)
}

// fetch returns one page, or with all set every page from q.Offset onwards
// merged into one without a next cursor.
func fetch(ctx context.Context, adapter transport.Adapter, q transport.ListQuery, all bool) (clients.Page, error) {
	page, err := adapter.List(ctx, q)
	if err != nil || !all {
		return page, err
	}

	merged := clients.Page{Records: page.Records}
	var pager pagination.Controller
	pager.Observe(page.Offset)
	for {
		cursor, ok := pager.Next()
		if !ok {
			return merged, nil
		}
		q.Offset = cursor
		page, err = adapter.List(ctx, q)
		if err != nil {
			return clients.Page{}, err
		}
		merged.Records = append(merged.Records, page.Records...)
		pager.Observe(page.Offset)
	}
}
