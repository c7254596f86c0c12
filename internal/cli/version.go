package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/form/internal/config"
)

// Version is the release version, set at build time with
// -ldflags "-X github.com/roach88/form/internal/cli.Version=...".
var Version = "dev"

// VersionInfo is the JSON payload of the version command.
type VersionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			info := VersionInfo{Name: config.AppName, Version: Version, GoVersion: runtime.Version()}
			return formatter.Success(info)
		},
	}
}

// WriteText prints "<name> <version>".
func (v VersionInfo) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s\n", v.Name, v.Version)
	return err
}
