package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Update
)

var (
	updateShort = "Update fields of a client record"

	updateLong = normalizers.LongDesc(`
Use update to change some fields of an existing client. Only the fields passed
as flags are sent; the others keep their stored values. Passing an empty value
clears a field.`)

	updateExamples = normalizers.Examples(`
		# Change the email of a client
		%[1]s update recA1b2C3 --email ana.souza@example.com
		# Clear the phone
		%[1]s update recA1b2C3 --phone ""`)
)

func NewUpdateCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:     Verb.String() + " <id>",
		Short:   updateShort,
		Long:    updateLong,
		Example: updateExamples,
		Aliases: []string{"u", "patch"},
		Args:    verbs.ExactlyOneID,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			id, patch, err := validate(helper)
			if err != nil {
				return err
			}
			return run(helper, id, patch)
		},
	}

	c.Flags().String(common.NameFlagName, "", "New client name.")
	c.Flags().String(common.EmailFlagName, "", "New client email.")
	c.Flags().String(common.PhoneFlagName, "", "New client phone.")

	return c, nil
}

func validate(helper cmd.Helper) (string, clients.Patch, error) {
	id := strings.TrimSpace(helper.GetArgs()[0])
	if err := clients.ValidateID(id); err != nil {
		return "", clients.Patch{}, &cmd.ConfigurationError{Err: err}
	}

	flags := helper.GetCmd().Flags()
	changed := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		v = strings.TrimSpace(v)
		return &v
	}
	patch := clients.Patch{
		Name:  changed(common.NameFlagName),
		Email: changed(common.EmailFlagName),
		Phone: changed(common.PhoneFlagName),
	}
	if patch.IsEmpty() {
		return "", clients.Patch{}, &cmd.ConfigurationError{
			Err: fmt.Errorf("nothing to update: pass at least one of --%s, --%s or --%s",
				common.NameFlagName, common.EmailFlagName, common.PhoneFlagName),
		}
	}
	return id, patch, nil
}

func run(helper cmd.Helper, id string, patch clients.Patch) error {
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

	record, err := adapter.Update(helper.GetContext(), id, patch)
	if err != nil {
		attrs := append([]any{"id", id}, cmd.TransportErrorAttrs(err)...)
		return cmd.PrepareExecutionError("Failed to update client", err, helper.GetCmd(), attrs...)
	}
	logger.Info("client updated", "id", record.ID)

	return output.Render(helper, common.DisplayClient(record), record)
}
