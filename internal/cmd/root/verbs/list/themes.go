package list

import (
	"strings"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/output"
	"github.com/clientctl/clientctl/internal/iostreams"
	"github.com/clientctl/clientctl/internal/theme"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List available color themes",
		Long: normalizers.LongDesc(`Display the registered color themes of the records view
and a sample of their palette. Select one with --theme or the theme config key.`),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runListThemes(cmd.BuildHelper(c, args))
		},
	}
}

type themeDisplay struct {
	ID      string
	Primary string
	Accent  string
	Danger  string
}

type themeRaw struct {
	ID      string      `json:"id"      yaml:"id"`
	Active  bool        `json:"active"  yaml:"active"`
	Primary theme.Color `json:"primary" yaml:"primary"`
	Accent  theme.Color `json:"accent"  yaml:"accent"`
	Danger  theme.Color `json:"danger"  yaml:"danger"`
}

func runListThemes(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	active := strings.ToLower(cfg.GetStringOrElse(common.ThemeConfigPath, theme.Current().Name))
	useColor := iostreams.IsTerminal(helper.GetStreams().Out)

	var display []themeDisplay
	var raw []themeRaw
	for _, name := range theme.Available() {
		p, ok := theme.Get(name)
		if !ok {
			continue
		}
		id := p.Name
		if id == active {
			id = "*" + id
		}
		display = append(display, themeDisplay{
			ID:      id,
			Primary: sample(p, theme.ColorPrimary, useColor),
			Accent:  sample(p, theme.ColorAccent, useColor),
			Danger:  sample(p, theme.ColorDanger, useColor),
		})
		raw = append(raw, themeRaw{
			ID:      p.Name,
			Active:  p.Name == active,
			Primary: p.Color(theme.ColorPrimary),
			Accent:  p.Color(theme.ColorAccent),
			Danger:  p.Color(theme.ColorDanger),
		})
	}

	return output.Render(helper, display, raw)
}

// sample is the light hex of token, or a colored block on a terminal.
func sample(p theme.Palette, token theme.Token, useColor bool) string {
	if !useColor {
		return p.Color(token).Light
	}
	return p.BackgroundStyle(token).Render(strings.Repeat(" ", 9))
}
