package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cube2222/partiplan/config"
	"github.com/cube2222/partiplan/logs"
)

var configPath string
var logLevel string

var log = logrus.NewEntry(logrus.StandardLogger())

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partiplan",
	Short: "Type algebra and plan rewrites for PartiQL queries.",
	Long: `partiplan exposes the type algebra used to type PartiQL plans
and runs the plan rewrite passes over plans built from a configured catalog.`,
	Example: `partiplan derive multiply 'decimal(5,2)' 'decimal(5,2)'
partiplan coerce 'union(int, string)' bigint
partiplan optimize --config catalog.yml --table orders --where id=42`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logs.Initialize(logLevel, os.Stderr)
		if err != nil {
			return err
		}
		log = logrus.NewEntry(logger)
		return nil
	},
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides the one in the configuration file.")
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Path to the configuration file.")
}

// readConfig reads the configuration and applies its log level unless one was given on the command line.
func readConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read config")
	}
	if logLevel == "" && cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, errors.Wrap(err, "invalid log level in config")
		}
		log.Logger.SetLevel(level)
	}
	return cfg, nil
}
