package create

import (
	"context"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Create
)

var (
	createShort = "Create a client record"

	createLong = normalizers.LongDesc(`
Use create to add a client. Name and email are required; phone is optional.
The record is validated locally before anything is sent.`)

	createExamples = normalizers.Examples(`
		# Create a client
		%[1]s create --name "Ana Souza" --email ana@example.com --phone "+55 11 5555-0101"
		# Print the new record id only
		%[1]s create --name Bia --email bia@example.com -o json --jq .id -r`)
)

func NewCreateCmd() (*cobra.Command, error) {
	c := &cobra.Command{
		Use:     Verb.String(),
		Short:   createShort,
		Long:    createLong,
		Example: createExamples,
		Aliases: []string{"c", "add"},
		Args:    verbs.NoPositionalArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			fields, err := validate(helper)
			if err != nil {
				return err
			}
			return run(helper, fields)
		},
	}

	c.Flags().String(common.NameFlagName, "", "Client name (required).")
	c.Flags().String(common.EmailFlagName, "", "Client email (required).")
	c.Flags().String(common.PhoneFlagName, "", "Client phone.")

	return c, nil
}

func validate(helper cmd.Helper) (clients.Fields, error) {
	flags := helper.GetCmd().Flags()
	name, _ := flags.GetString(common.NameFlagName)
	email, _ := flags.GetString(common.EmailFlagName)
	phone, _ := flags.GetString(common.PhoneFlagName)

	fields := clients.Fields{Name: name, Email: email, Phone: phone}.Trimmed()
	if err := fields.Validate(); err != nil {
		return clients.Fields{}, &cmd.ConfigurationError{Err: err}
	}
	return fields, nil
}

func run(helper cmd.Helper, fields clients.Fields) error {
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

	record, err := adapter.Create(helper.GetContext(), fields)
	if err != nil {
		return cmd.PrepareExecutionError("Failed to create client", err, helper.GetCmd(),
			cmd.TransportErrorAttrs(err)...)
	}
	logger.Info("client created", "id", record.ID)

	return output.Render(helper, common.DisplayClient(record), record)
}
