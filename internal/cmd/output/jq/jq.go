// Package jq filters command output with jq expressions before it reaches
// the printer.
package jq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/itchyny/gojq"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagName           = "jq"
	ColorFlagName      = "jq-color"
	ThemeFlagName      = "jq-color-theme"
	RawOutputFlagName  = "jq-raw-output"
	RawOutputFlagShort = "r"

	DefaultExpressionConfigPath = "jq.default-expression"
	ColorConfigPath             = "jq.color.enabled"
	ThemeConfigPath             = "jq.color.theme"
	RawOutputConfigPath         = "jq.raw-output"

	DefaultTheme = "friendly"
)

var compiled sync.Map

// Settings is the resolved jq configuration for one command run.
type Settings struct {
	Filter    string
	Color     common.ColorMode
	Theme     string
	RawOutput bool
}

// Enabled reports whether a filter expression is set.
func (s Settings) Enabled() bool {
	return strings.TrimSpace(s.Filter) != ""
}

// AddFlags registers the jq flags on a command that prints records.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "",
		fmt.Sprintf(`Filter the JSON output with a jq expression.
- Config path: [ %s ]`, DefaultExpressionConfigPath))

	flags.Var(cmd.NewEnum([]string{"auto", "always", "never"}, common.DefaultColorMode), ColorFlagName,
		fmt.Sprintf(`Colorize jq results.
- Config path: [ %s ]
- Allowed    : [ auto|always|never ]`, ColorConfigPath))

	flags.String(ThemeFlagName, DefaultTheme,
		fmt.Sprintf(`Color theme for jq results (any chroma style name).
- Config path: [ %s ]`, ThemeConfigPath))

	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false,
		fmt.Sprintf(`Print string results without JSON quotes.
- Config path: [ %s ]`, RawOutputConfigPath))
}

// BindFlags binds the jq flags present on flags to their config paths.
func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	if cfg == nil || flags == nil {
		return nil
	}
	for flag, path := range map[string]string{
		ColorFlagName:     ColorConfigPath,
		ThemeFlagName:     ThemeConfigPath,
		RawOutputFlagName: RawOutputConfigPath,
	} {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := cfg.BindFlag(path, f); err != nil {
			return err
		}
	}
	return nil
}

// ResolveSettings merges the jq flags of command with cfg. Commands without
// a --jq flag never filter, whatever the config says.
func ResolveSettings(command *cobra.Command, cfg config.Hook) (Settings, error) {
	settings := Settings{Theme: DefaultTheme}
	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	settings.Filter = strings.TrimSpace(filter)
	if flags.Changed(FlagName) && settings.Filter == "" {
		settings.Filter = "."
	}

	if cfg == nil {
		if flags.Lookup(RawOutputFlagName) != nil {
			settings.RawOutput, err = flags.GetBool(RawOutputFlagName)
		}
		return settings, err
	}

	if !flags.Changed(FlagName) {
		if expr := strings.TrimSpace(cfg.GetString(DefaultExpressionConfigPath)); expr != "" {
			settings.Filter = expr
		}
	}
	settings.Color, err = common.ColorModeStringToIota(strings.ToLower(strings.TrimSpace(cfg.GetString(ColorConfigPath))))
	if err != nil {
		return Settings{}, &cmd.ConfigurationError{Err: err}
	}
	settings.Theme = cfg.GetStringOrElse(ThemeConfigPath, DefaultTheme)
	settings.RawOutput = cfg.GetBool(RawOutputConfigPath)
	return settings, nil
}

// Validate rejects settings that cannot be honored with outType.
func (s Settings) Validate(outType common.OutputFormat) error {
	switch {
	case s.RawOutput && !s.Enabled():
		return &cmd.ConfigurationError{Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName)}
	case s.RawOutput && outType != common.JSON:
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json", RawOutputFlagName),
		}
	case s.Enabled() && outType == common.TEXT:
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
		}
	}
	return nil
}

// Apply filters raw. When the result has been written to out directly
// (raw strings or colorized JSON) handled is true and the caller prints
// nothing; otherwise the filtered value is returned for the printer.
func Apply(raw any, outType common.OutputFormat, s Settings, out io.Writer) (result any, handled bool, err error) {
	if !s.Enabled() {
		return raw, false, nil
	}
	if err := s.Validate(outType); err != nil {
		return nil, false, err
	}

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode output before applying jq filter: %w", err)
	}
	results, err := Evaluate(body, s.Filter)
	if err != nil {
		return nil, false, err
	}

	if s.RawOutput {
		return nil, true, writeRaw(results, out)
	}

	value := collapse(results)
	if outType == common.JSON && UseColor(s.Color, out) {
		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, false, err
		}
		_, err = fmt.Fprintln(out, strings.TrimRight(Colorize(string(pretty), s.Theme), "\n"))
		return nil, true, err
	}
	return value, false, nil
}

// Evaluate runs filter over a JSON document and returns every emitted value.
func Evaluate(body []byte, filter string) ([]any, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "."
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("output is empty, cannot apply jq filter")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	code, err := compile(filter)
	if err != nil {
		return nil, err
	}

	var results []any
	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func compile(filter string) (*gojq.Code, error) {
	if code, ok := compiled.Load(filter); ok {
		return code.(*gojq.Code), nil
	}
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	compiled.Store(filter, code)
	return code, nil
}

// collapse turns a single result into a value and several into an array.
func collapse(results []any) any {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return results[0]
	default:
		return results
	}
}

func writeRaw(results []any, out io.Writer) error {
	for _, r := range results {
		line, ok := r.(string)
		if !ok {
			encoded, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode filtered result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

var isTerminal = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// UseColor resolves mode against out and the NO_COLOR convention.
func UseColor(mode common.ColorMode, out io.Writer) bool {
	switch mode {
	case common.ColorModeAlways:
		return true
	case common.ColorModeNever:
		return false
	}
	if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		return false
	}
	f, ok := out.(interface{ Fd() uintptr })
	return ok && isTerminal(f.Fd())
}

// Colorize highlights a JSON document for a 256 color terminal. The input
// is returned unchanged when highlighting fails.
func Colorize(doc, theme string) string {
	lexer := lexers.Get("json")
	formatter := formatters.Get("terminal256")
	if lexer == nil || formatter == nil {
		return doc
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	tokens, err := lexer.Tokenise(nil, doc)
	if err != nil {
		return doc
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, tokens); err != nil {
		return doc
	}
	return buf.String()
}
