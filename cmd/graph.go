package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/covaflow/builder"
	"github.com/kbukum/covaflow/logger"
)

const outFlag = "out"

// NewGraphCommand returns the command that builds the configured graph
// without an engine and prints it as YAML.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the graph the configuration builds",
		Long: `Build the configured graph up to its truncation point without starting an
engine and print its stages, links and lanes as YAML. The demuxer pad is
assumed to be video_0.`,
		Args: cobra.NoArgs,
		RunE: printGraph,
	}
	cmd.Flags().StringP(outFlag, "o", "", "write the graph to a file instead of stdout")
	return cmd
}

func printGraph(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := builder.New(cfg.Pipeline, builder.WithLogger(logger.Get("builder")))
	if err != nil {
		return err
	}
	g, err := b.Plan()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString(outFlag); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return g.WriteYAML(w)
}
