package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"costfield/planning"
	"costfield/server"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Sweeps the solve may run ahead of the store before it waits.
const progressBuffer = 16

var (
	flagHost string
	flagPort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Solve in the background and serve progress and results over HTTP",
	Long: `Serve starts the solve described by --config and an HTTP server that
reports on it:

  GET /status               - latest sweep and solve state
  GET /field                - the full report, once converged
  GET /value/{o}/{x}/{y}    - one state's value
  GET /policy/{o}/{x}/{y}   - one state's action and successor
  GET /metrics              - prometheus metrics
  GET /ws                   - websocket stream of status until the solve ends

Field queries answer 503 while solving. The server runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagHost, "host", "", "The host ip")
	serveCmd.Flags().StringVar(&flagPort, "port", "8080", "The host port")
}

func runServe(cmd *cobra.Command, _ []string) (err error) {
	logger, err := newLogger("serve")
	if err != nil {
		return
	}
	cfg, err := loadConfig(cmd, logger)
	if err != nil {
		return
	}

	appCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := server.NewStore()
	srv := server.NewServer(net.JoinHostPort(flagHost, flagPort), store, logger)

	group, groupCtx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})
	group.Go(func() error {
		solve(groupCtx, cfg, store, logger.WithPrefix("planner"))
		return nil
	})

	return group.Wait()
}

// solve runs the planner, feeding sweep progress into store as it goes.
// A failed solve is recorded in the store; the server keeps running.
func solve(ctx context.Context, cfg *planning.PlannerConfig, store *server.Store, logger *log.Logger) {
	feedCtx, stopFeed := context.WithCancel(ctx)
	progressFn, updates := planning.Publisher(feedCtx, progressBuffer)
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		planning.Drain(feedCtx.Done(), updates, store.Observe)
	}()

	plan, err := planning.Run(ctx, cfg, logger, progressFn)
	stopFeed()
	<-fed
	if err != nil {
		logger.Error("solve failed", "err", err)
	}
	store.Complete(plan, err)
}
