// Package output prints command results in the configured format.
package output

import (
	"fmt"

	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/output/jq"
	"github.com/segmentio/cli"
)

// Render prints display for text output and raw for json/yaml, after
// applying any --jq filter configured on the helper's command.
func Render(helper cmd.Helper, display any, raw any) error {
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg)
	if err != nil {
		return err
	}
	if err := settings.Validate(outType); err != nil {
		return err
	}
	if settings.Enabled() {
		filtered, handled, err := jq.Apply(raw, outType, settings, streams.Out)
		if err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "jq filter failed", err)
		}
		if handled {
			return nil
		}
		raw = filtered
	}

	printer, err := cli.Format(outType.String(), streams.Out)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	defer printer.Flush()

	switch outType {
	case common.TEXT:
		printer.Print(display)
	case common.JSON, common.YAML:
		printer.Print(raw)
	}
	return nil
}
