package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/form/internal/config"
	"github.com/roach88/form/internal/split"
	"github.com/roach88/form/internal/syntax"
)

// SplitOptions holds flags for the split command.
type SplitOptions struct {
	*RootOptions
	Input    string // input file path, "-" or empty for stdin
	Output   string // base directory for the module tree
	Style    string // "source" | "tokens"
	Force    bool   // overwrite existing files
	RootFile string // crate root file name
}

// SplitResult is the JSON payload of the split and plan commands.
type SplitResult struct {
	Input string `json:"input"`
	*split.Report
	DryRun bool `json:"dry_run,omitempty"`
}

// NewSplitCommand creates the split command.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SplitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "split -o <dir> [-i <file>]",
		Short: "Split inline modules into a tree of files",
		Long: `Split a Rust source file into one file per inline module.

The input is read from --input, or from standard input when it is omitted
or "-". The crate root is written to <dir>/lib.rs and each module to a
path mirroring its nesting. Modules named after reserved Windows device
names are written with a trailing underscore and a #[path] attribute.

Existing files are never replaced unless --force is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(opts, cmd)
		},
	}

	addSplitFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing files")

	return cmd
}

// addSplitFlags registers the flags shared by split and plan.
func addSplitFlags(cmd *cobra.Command, opts *SplitOptions) {
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input file (default stdin)")
	cmd.Flags().StringVar(&opts.Style, "style", "", "output style (source|tokens)")
	cmd.Flags().StringVar(&opts.RootFile, "root-file", "", "crate root file name (default lib.rs)")
}

func runSplit(opts *SplitOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg, logger, fsys := opts.settings()

	in, err := LoadInput(fsys, opts.Input, cmd.InOrStdin())
	if err != nil {
		return outputLoadError(formatter, err)
	}

	splitter, err := opts.splitter(cmd, cfg, fsys, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	formatter.VerboseLog("Splitting %s into %s", in.DisplayName(), opts.Output)
	report, err := splitter.Split(opts.Output, in.Name, in.Source)
	if err != nil {
		return outputSplitError(formatter, err)
	}

	return formatter.Success(&SplitResult{Input: in.DisplayName(), Report: report})
}

// splitter builds a Splitter from the configuration, with flags given on
// the command line taking precedence.
func (opts *SplitOptions) splitter(cmd *cobra.Command, cfg *config.Config, fsys afero.Fs, logger *slog.Logger) (*split.Splitter, error) {
	styleName := cfg.Style
	if cmd.Flags().Changed("style") {
		styleName = opts.Style
	}
	style, err := syntax.ParseStyle(styleName)
	if err != nil {
		return nil, err
	}

	rootFile := cfg.RootFile
	if cmd.Flags().Changed("root-file") {
		rootFile = opts.RootFile
	}
	if rootFile == "" || filepath.Base(rootFile) != rootFile {
		return nil, fmt.Errorf("invalid root file %q: must be a file name", rootFile)
	}

	overwrite := cfg.Overwrite
	if cmd.Flags().Changed("force") {
		overwrite = opts.Force
	}

	return split.New(split.Options{
		FS:        fsys,
		Style:     style,
		RootFile:  rootFile,
		Overwrite: overwrite,
		Logger:    logger,
	}), nil
}

// outputLoadError reports an input that could not be read.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeReadFailed, err.Error()
	var details map[string]string
	var le *LoadError
	if errors.As(err, &le) {
		code, message = le.Code, le.Message
		if le.Path != "" {
			details = map[string]string{"path": le.Path}
		}
		if le.Err != nil {
			message = fmt.Sprintf("%s: %v", le.Message, le.Err)
		}
	}
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, "loading input", err)
}

// outputSplitError reports a failed split with the exit code for its kind.
func outputSplitError(formatter *OutputFormatter, err error) error {
	code, exit := classifySplitError(err)
	_ = formatter.Error(code, err.Error(), splitErrorDetails(err))
	return WrapExitError(exit, "split failed", err)
}

// WriteText lists the files written, or planned for a dry run, relative to
// the output directory and in emission order.
func (r *SplitResult) WriteText(w io.Writer) error {
	verb := "Split"
	if r.DryRun {
		verb = "Would split"
	}
	if _, err := fmt.Fprintf(w, "✓ %s %s into %d file(s)\n\n", verb, r.Input, len(r.Files)); err != nil {
		return err
	}
	for _, f := range r.Files {
		if _, err := fmt.Fprintf(w, "  %s (%s)\n", r.relPath(f), f.Module); err != nil {
			return err
		}
	}
	return nil
}

// relPath returns the path of f relative to the output directory, with
// forward slashes.
func (r *SplitResult) relPath(f split.EmittedFile) string {
	path := f.Path
	if rel, err := filepath.Rel(r.BaseDir, f.Path); err == nil {
		path = rel
	}
	return filepath.ToSlash(path)
}
