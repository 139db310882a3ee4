package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/covaflow/version"
)

// NewVersionCommand returns the command that prints build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the covaflow version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return version.Get().Write(cmd.OutOrStdout())
		},
	}
}
