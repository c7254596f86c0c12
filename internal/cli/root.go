package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/form/internal/config"
)

// RootOptions holds global flags for all commands, and the state resolved
// from them before a subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	LogLevel   string

	// FS is the filesystem input is read from and output written to.
	FS afero.Fs
	// RunIDs generates the run id. Defaults to UUIDv7.
	RunIDs RunIDGenerator

	// Resolved by PersistentPreRunE.
	Config *config.Config
	RunID  string
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the form CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "form - split inline Rust modules into files",
		Long: `Split a Rust source file with inline modules into a tree of files.

Every inline "mod name { ... }" is moved into name.rs next to the file that
declares it, recursively, leaving a bodiless "mod name;" behind.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./form.cue if present)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewSplitCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// resolve validates the global flags, loads the configuration and builds
// the logger.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(opts.Format) {
		msg := fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		_ = opts.formatter(cmd).Error(ErrCodeInvalidFlag, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.RunIDs == nil {
		opts.RunIDs = uuidRunIDs{}
	}
	opts.RunID = opts.RunIDs.Generate()
	formatter := opts.formatter(cmd)

	cfg, path, err := config.Load(config.LoadOptions{ConfigFilePath: opts.ConfigPath, FS: opts.FS})
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if opts.LogLevel != "" {
		if !slices.Contains(config.ValidLogLevels, opts.LogLevel) {
			msg := fmt.Sprintf("invalid log level %q: must be one of %v", opts.LogLevel, config.ValidLogLevels)
			_ = formatter.Error(ErrCodeInvalidFlag, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	opts.Config = cfg
	opts.Logger = NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.RunID)
	if path != "" {
		opts.Logger.Debug("loaded configuration", "path", path)
	}
	return nil
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		RunID:     opts.RunID,
	}
}

// settings returns the resolved configuration, falling back to defaults
// when the command runs without the root command's pre-run.
func (opts *RootOptions) settings() (*config.Config, *slog.Logger, afero.Fs) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return cfg, logger, fsys
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	// Exit errors are already reported through the formatter. Anything
	// else comes from cobra itself: unknown commands and bad flags.
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}
