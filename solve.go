package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"costfield/planning"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the configured problem and print the fields as YAML",
	Long: `Solve builds the problem described by --config, runs value iteration
to convergence, and writes a report to stdout: the track, a summary, and per
heading the value and policy layers laid out like the track.

Unreachable values print as null; states with no action print as "".`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func runSolve(cmd *cobra.Command, _ []string) (err error) {
	logger, err := newLogger("solve")
	if err != nil {
		return
	}
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan, err := planning.Run(ctx, cfg, logger, nil)
	if err != nil {
		return
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	defer encoder.Close()
	if err = encoder.Encode(planning.NewReport(plan)); err != nil {
		err = fmt.Errorf("write report: %w", err)
	}
	return
}
