/*
Costfield computes cost-to-go fields for a vehicle on a grid track, where the
vehicle's heading is part of its state: turning and reversing can cost extra.
Values are found by value iteration over every (heading, x, y) state, and the
result is a value field plus a policy giving the cheapest action from each
state toward the nearest goal.

Usage:

	costfield solve              - Solve the configured problem and print it as YAML
	costfield serve              - Solve in the background and serve progress and results

Global flags:

	--config <path>     - Planner config (default: ./config.yaml)
	--log-level <level> - debug, info, warn or error (default: info)
*/
package main

import (
	"fmt"
	"os"

	"costfield/planning"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "costfield",
	Short: "Orientation-aware value iteration over grid tracks",
	Long: `Costfield solves for the cheapest way to reach a goal from every
position and heading on a grid track.

Examples:
  costfield solve --config ./config.yaml
  costfield solve --log-level debug > field.yaml
  costfield serve --port 8080`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "./config.yaml", "Path to the planner config")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger writes to stderr, leaving stdout to results.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	return logger, nil
}

// loadConfig reads --config, falling back to the default problem when the
// flag was left at its default and no such file exists.
func loadConfig(cmd *cobra.Command, logger *log.Logger) (*planning.PlannerConfig, error) {
	if _, err := os.Stat(flagConfig); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		logger.Warn("no config file, using the default problem", "config", flagConfig)
		return planning.DefaultConfig(), nil
	}
	return planning.FromYaml(flagConfig)
}
