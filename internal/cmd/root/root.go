package root

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/clientctl/clientctl/internal/build"
	"github.com/clientctl/clientctl/internal/cmd"
	"github.com/clientctl/clientctl/internal/cmd/common"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/create"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/del"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/list"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/serve"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/update"
	"github.com/clientctl/clientctl/internal/cmd/root/verbs/view"
	"github.com/clientctl/clientctl/internal/cmd/root/version"
	"github.com/clientctl/clientctl/internal/config"
	"github.com/clientctl/clientctl/internal/iostreams"
	"github.com/clientctl/clientctl/internal/log"
	"github.com/clientctl/clientctl/internal/meta"
	"github.com/clientctl/clientctl/internal/profile"
	"github.com/clientctl/clientctl/internal/theme"
	"github.com/clientctl/clientctl/internal/util/normalizers"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	rootLong = normalizers.LongDesc(`
clientctl manages client records (name, email, phone) kept in a hosted table.

Records are reached through the relay service (clientctl serve) unless a
complete table credential is configured, in which case the table service is
called directly.`)

	rootShort = fmt.Sprintf("%s manages client records", meta.CLIName)
)

// rootState is the runtime state shared by the persistent hooks of one
// command tree.
type rootState struct {
	configFilePath string
	profile        string
	outputFormat   *cmd.FlagEnum
	logLevel       *cmd.FlagEnum

	streams   *iostreams.IOStreams
	buildInfo *build.Info
	closeLog  func() error
}

// persistent flags bound to config paths in every profile
var configFlags = map[string]string{
	common.OutputFlagName:          common.OutputConfigPath,
	common.LogLevelFlagName:        common.LogLevelConfigPath,
	common.LogFileFlagName:         common.LogFileConfigPath,
	common.ThemeFlagName:           common.ThemeConfigPath,
	common.RelayBaseURLFlagName:    config.RelayBaseURLConfigPath,
	common.RelayConfigFlagName:     config.RelayConfigConfigPath,
	common.DirectBaseURLFlagName:   config.DirectBaseURLConfigPath,
	common.CredentialsFileFlagName: config.DirectCredentialsFileConfigPath,
}

func newRootCmd(state *rootState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               meta.CLIName,
		Short:             rootShort,
		Long:              rootLong,
		SilenceUsage:      true,
		PersistentPreRunE: state.preRun,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if state.closeLog != nil {
				return state.closeLog()
			}
			return nil
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.configFilePath, common.ConfigFilePathFlagName,
		config.ExpandDefaultConfigFilePath(), "Path to the configuration file to load.")

	flags.StringVarP(&state.profile, common.ProfileFlagName, common.ProfileFlagShort,
		state.profile, fmt.Sprintf(`Specify the profile to use for this command.
- Environment: [ %s_PROFILE ]`, meta.EnvPrefix))

	flags.VarP(state.outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`, common.OutputConfigPath, strings.Join(state.outputFormat.Allowed, "|")))

	flags.Var(state.logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level.
- Config path: [ %s ]
- Allowed    : [ %s ]`, common.LogLevelConfigPath, strings.Join(state.logLevel.Allowed, "|")))

	flags.String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write logs to this file instead of STDERR. Errors are still shown on STDERR.
- Config path: [ %s ]`, common.LogFileConfigPath))

	flags.String(common.ThemeFlagName, theme.DefaultName,
		fmt.Sprintf(`Color theme of the records view.
- Config path: [ %s ]
- Allowed    : [ %s ]`, common.ThemeConfigPath, strings.Join(theme.Available(), "|")))

	flags.String(common.RelayBaseURLFlagName, config.DefaultRelayBaseURL,
		fmt.Sprintf(`Base URL of the relay API.
- Config path: [ %s ]`, config.RelayBaseURLConfigPath))

	flags.String(common.RelayConfigFlagName, "",
		fmt.Sprintf(`File or URL of a JSON document {"API_BASE_URL": ...} overriding the relay base URL.
- Config path: [ %s ]`, config.RelayConfigConfigPath))

	flags.String(common.DirectBaseURLFlagName, config.DefaultDirectBaseURL,
		fmt.Sprintf(`Base URL of the table service for direct mode.
- Config path: [ %s ]`, config.DirectBaseURLConfigPath))

	flags.String(common.CredentialsFileFlagName, "",
		fmt.Sprintf(`JSON file {"API_KEY", "BASE_ID", "TABLE_NAME"} enabling direct mode.
- Config path: [ %s ]`, config.DirectCredentialsFileConfigPath))

	return rootCmd
}

// addCommands adds the root subcommands to the command.
func addCommands(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(version.NewVersionCmd())

	for _, newCmd := range []func() (*cobra.Command, error){
		list.NewListCmd,
		create.NewCreateCmd,
		update.NewUpdateCmd,
		del.NewDeleteCmd,
		view.NewViewCmd,
		serve.NewServeCmd,
	} {
		c, err := newCmd()
		if err != nil {
			return err
		}
		rootCmd.AddCommand(c)
	}
	return nil
}

func (s *rootState) preRun(c *cobra.Command, _ []string) error {
	cfg, err := config.GetConfig(s.configFilePath, s.profile, config.ExpandDefaultConfigFilePath())
	if err != nil {
		return &cmd.ConfigurationError{Err: fmt.Errorf("failed to load config %s: %w", s.configFilePath, err)}
	}
	if err := bindConfigFlags(cfg, c.Flags()); err != nil {
		return err
	}

	logger, closeLog, err := log.New(log.Options{
		Level:   cfg.GetStringOrElse(common.LogLevelConfigPath, config.DefaultLogLevel),
		File:    cfg.GetString(common.LogFileConfigPath),
		Console: s.streams.ErrOut,
	})
	if err != nil {
		return &cmd.ConfigurationError{Err: fmt.Errorf("failed to open log file: %w", err)}
	}
	s.closeLog = closeLog

	if err := theme.SetCurrent(cfg.GetStringOrElse(common.ThemeConfigPath, theme.DefaultName)); err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	ctx := c.Context()
	ctx = context.WithValue(ctx, config.ConfigKey, config.Hook(cfg))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, s.streams)
	ctx = context.WithValue(ctx, log.LoggerKey, logger)
	ctx = context.WithValue(ctx, build.InfoKey, s.buildInfo)
	ctx = context.WithValue(ctx, profile.ProfileManagerKey, profile.NewManager(cfg.Viper))
	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{CommandPath: c.CommandPath()})
	c.SetContext(ctx)

	logger.Debug("command starting", "command", c.CommandPath(), "profile", cfg.GetProfile(), "config", cfg.GetPath())
	return nil
}

func bindConfigFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	for flag, path := range configFlags {
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

// newState returns the root state with the profile taken from the
// environment, so that the --profile flag has priority over it.
func newState(s *iostreams.IOStreams, bi *build.Info) *rootState {
	profile := common.DefaultProfile
	if v, ok := os.LookupEnv(meta.EnvPrefix + "_PROFILE"); ok && strings.TrimSpace(v) != "" {
		profile = strings.TrimSpace(v)
	}
	return &rootState{
		profile:      profile,
		outputFormat: cmd.NewEnum(common.OutputFormats, common.DefaultOutputFormat),
		logLevel:     cmd.NewEnum(common.LogLevels, config.DefaultLogLevel),
		streams:      s,
		buildInfo:    bi,
	}
}

// NewRootCmd builds the full command tree.
func NewRootCmd(s *iostreams.IOStreams, bi *build.Info) (*cobra.Command, error) {
	cobra.EnableTraverseRunHooks = true
	state := newState(s, bi)
	rootCmd := newRootCmd(state)
	if err := addCommands(rootCmd); err != nil {
		return nil, err
	}
	rootCmd.SetIn(s.In)
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.ErrOut)
	return rootCmd, nil
}

// run executes args and returns the process exit code. Execution errors are
// logged through the friendly handler.
func run(ctx context.Context, s *iostreams.IOStreams, bi *build.Info, args []string) int {
	rootCmd, err := NewRootCmd(s, bi)
	if err != nil {
		fmt.Fprintln(s.ErrOut, err)
		return 1
	}
	rootCmd.SetArgs(args)

	err = rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		logger := slog.New(log.NewFriendlyErrorHandler(s.ErrOut))
		attrs := append([]any{"error", executionError.Err.Error()}, executionError.Attrs...)
		logger.Error(executionError.Msg, attrs...)
		return 1
	}

	// cobra has already printed configuration and usage errors
	return 1
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	if code := run(ctx, s, bi, os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}
