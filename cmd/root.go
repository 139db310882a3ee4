// Package cmd contains the commands of the covaflow binary.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/covaflow/config"
	"github.com/kbukum/covaflow/logger"
)

const (
	configFlag  = "config"
	envFileFlag = "env-file"
	debugFlag   = "debug"
)

// NewRootCommand returns the root command. Children read the configuration
// file named by --config; COVA_* environment variables override its keys.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covaflow",
		Short: "Build and run compressed-domain video analytics pipelines",
		Long: `covaflow builds a GStreamer pipeline for one of three video analytics
topologies (single-lane, tracking-multi-lane, replicated-multi-lane), runs it
to end of stream and reports elapsed time and tracker decode rates.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP(configFlag, "c", "config.yaml", "path to the pipeline configuration file")
	flags.String(envFileFlag, "", "env file to load before reading the environment (default: .env next to the config)")
	flags.Bool(debugFlag, false, "log at debug level, including every engine event")

	return cmd
}

// NewCommand returns the root command with every subcommand attached.
func NewCommand() *cobra.Command {
	root := NewRootCommand()
	root.AddCommand(NewRunCommand(), NewLaunchCommand(), NewGraphCommand(), NewVersionCommand())
	return root
}

// loadConfig reads the configuration named by the persistent flags and
// initializes logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString(configFlag)
	envFile, _ := flags.GetString(envFileFlag)
	debug, _ := flags.GetBool(debugFlag)

	var opts []config.LoaderOption
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	var cfg config.Config
	if err := config.LoadConfig(path, &cfg, opts...); err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	logger.Init(cfg.Logging)
	return &cfg, nil
}
