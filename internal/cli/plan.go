package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	SplitOptions
	Show bool // print the content of every planned file
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{SplitOptions: SplitOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "plan [-i <file>] [-o <dir>]",
		Short: "Show the files split would write",
		Long: `Run a split without touching the disk.

Writes go to an in-memory layer over a read-only view of the output
directory, so a plan reports the same conflicts a real split would.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	addSplitFlags(cmd, &opts.SplitOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "plan as if existing files were overwritten")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "print the content of each planned file")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg, logger, base := opts.settings()

	in, err := LoadInput(base, opts.Input, cmd.InOrStdin())
	if err != nil {
		return outputLoadError(formatter, err)
	}

	// Reads see the real tree; writes land in memory.
	fsys := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs())
	splitter, err := opts.splitter(cmd, cfg, fsys, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidFlag, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	formatter.VerboseLog("Planning split of %s into %s", in.DisplayName(), opts.Output)
	report, err := splitter.Split(opts.Output, in.Name, in.Source)
	if err != nil {
		return outputSplitError(formatter, err)
	}

	result := &SplitResult{Input: in.DisplayName(), Report: report, DryRun: true}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if opts.Show && formatter.Format != FormatJSON {
		return showPlannedFiles(formatter, fsys, result)
	}
	return nil
}

// showPlannedFiles prints every planned file, root first.
func showPlannedFiles(formatter *OutputFormatter, fsys afero.Fs, result *SplitResult) error {
	for i := len(result.Files) - 1; i >= 0; i-- {
		f := result.Files[i]
		content, err := afero.ReadFile(fsys, f.Path)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("reading planned file: %v", err), nil)
			return WrapExitError(ExitCommandError, "reading planned file", err)
		}
		fmt.Fprintf(formatter.Writer, "\n=== %s ===\n%s", result.relPath(f), content)
	}
	return nil
}
