package list

import (
	"errors"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/profile"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "List configuration profiles",
		Long: normalizers.LongDesc(`Display the profiles of the loaded configuration file.
The profile used by this invocation is marked with *.`),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runListProfiles(cmd.BuildHelper(c, args))
		},
	}
}

type profileDisplay struct {
	Name   string
	Config string
}

type profileRaw struct {
	Name   string `json:"name"   yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

func runListProfiles(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	manager, ok := helper.GetContext().Value(profile.ProfileManagerKey).(profile.Manager)
	if !ok || manager == nil {
		return errors.New("no profile manager configured")
	}

	active := cfg.GetProfile()
	display := []profileDisplay{}
	raw := []profileRaw{}
	for _, name := range manager.GetProfiles() {
		shown := name
		if name == active {
			shown = "*" + name
		}
		display = append(display, profileDisplay{Name: shown, Config: cfg.GetPath()})
		raw = append(raw, profileRaw{Name: name, Active: name == active})
	}
	return output.Render(helper, display, raw)
}
