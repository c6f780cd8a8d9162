package del

import (
	"context"
	"strings"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Delete

	yesFlagName  = "yes"
	yesFlagShort = "y"
)

var (
	deleteShort = "Delete a client record"

	deleteLong = normalizers.LongDesc(`
Use delete to remove a client. The command asks for confirmation unless --yes
is passed; declining sends nothing.`)

	deleteExamples = normalizers.Examples(`
		# Delete after confirming at the prompt
		%[1]s delete recA1b2C3
		# Delete without a prompt
		%[1]s delete recA1b2C3 --yes`)
)

type deleteResult struct {
	ID      string `json:"id"      yaml:"id"`
	Deleted bool   `json:"deleted" yaml:"deleted"`
}

func NewDeleteCmd() (*cobra.Command, error) {
	var autoApprove bool

	c := &cobra.Command{
		Use:     Verb.String() + " <id>",
		Short:   deleteShort,
		Long:    deleteLong,
		Example: deleteExamples,
		Aliases: []string{"d", "del", "rm"},
		Args:    verbs.ExactlyOneID,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
			cmd.SetDeleteAutoApprove(c, autoApprove)
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			id := strings.TrimSpace(args[0])
			if err := clients.ValidateID(id); err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			return run(helper, id)
		},
	}

	c.Flags().BoolVarP(&autoApprove, yesFlagName, yesFlagShort, false,
		"Skip the confirmation prompt (not configurable).")

	return c, nil
}

func run(helper cmd.Helper, id string) error {
	if err := cmd.ConfirmDelete(helper, "client "+id); err != nil {
		return err
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

	if err := adapter.Delete(helper.GetContext(), id); err != nil {
		attrs := append([]any{"id", id}, cmd.TransportErrorAttrs(err)...)
		return cmd.PrepareExecutionError("Failed to delete client", err, helper.GetCmd(), attrs...)
	}
	logger.Info("client deleted", "id", id)

	result := deleteResult{ID: id, Deleted: true}
	return output.Render(helper, result, result)
}
