package cmd

import (
	"github.com/spf13/cobra"
)

// NewRunCommand returns the command that runs a pipeline to end of stream
// and prints its report.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the configured pipeline and print its report",
		Args:  cobra.NoArgs,
		RunE:  runPipeline,
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	_, err = execution{cfg: cfg, report: cmd.OutOrStdout()}.run(cmd.Context())
	return err
}
