package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/covaflow/aggregator"
	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/logger"
)

const (
	perfFlag = "perf"

	resolvedConfigFile = "config.yaml"
	reportFile         = "out.txt"
)

// NewLaunchCommand returns the command that runs an experiment: it prepares
// the output directory, starts the analysis-aggregator and runs the
// pipeline with its report copied to out.txt.
func NewLaunchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <output_dir>",
		Short: "Run the pipeline together with the analysis aggregator",
		Long: `Create the output directory, allocate two free local ports for tracker and
inference output, write the resolved configuration to config.yaml, start the
analysis aggregator and run the pipeline. The report is printed and written
to out.txt. With --perf no ports are allocated and no aggregator is started.`,
		Args: cobra.ExactArgs(1),
		RunE: launch,
	}
	cmd.Flags().Bool(perfFlag, false, "measure pipeline throughput only: no aggregator, ports set to 0")
	return cmd
}

func launch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	perf, _ := cmd.Flags().GetBool(perfFlag)
	outputDir := args[0]
	log := logger.Get("launch")

	trackPort, dnnPort, err := prepare(cfg, outputDir, perf)
	if err != nil {
		return err
	}
	log.Info("experiment prepared", logger.Fields(
		"output_dir", outputDir,
		"track_port", trackPort,
		"dnn_port", dnnPort,
		"perf", perf,
	))

	var agg *aggregator.Aggregator
	exit := os.Exit
	if !perf {
		agg, err = aggregator.Start(aggregator.NewOptions(cfg, outputDir, trackPort, dnnPort), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		exit = func(code int) {
			_ = agg.Terminate()
			os.Exit(code)
		}
	}

	f, err := os.Create(filepath.Join(outputDir, reportFile))
	if err != nil {
		if agg != nil {
			_ = agg.Terminate()
		}
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	_, runErr := execution{
		cfg:    cfg,
		report: io.MultiWriter(cmd.OutOrStdout(), f),
		exit:   exit,
	}.run(cmd.Context())

	if agg == nil {
		return runErr
	}
	if runErr != nil {
		_ = agg.Terminate()
	}
	if _, err := agg.Wait(context.WithoutCancel(cmd.Context())); err != nil && runErr == nil {
		return fmt.Errorf("aggregator: %w", err)
	}
	return runErr
}

// prepare creates the output directory, assigns the tracker and inference
// ports and writes the resolved configuration next to the results.
func prepare(cfg *config.Config, outputDir string, perf bool) (trackPort, dnnPort int, err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("creating output directory: %w", err)
	}
	if !perf {
		ports, err := aggregator.FreePorts(2)
		if err != nil {
			return 0, 0, err
		}
		trackPort, dnnPort = ports[0], ports[1]
	}
	cfg.CovaPort = uint(trackPort)
	cfg.TCPProbePort = uint(dnnPort)

	if err := config.WriteResolved(filepath.Join(outputDir, resolvedConfigFile), cfg); err != nil {
		return 0, 0, err
	}
	return trackPort, dnnPort, nil
}
