package planning

import (
	"context"
	"fmt"
	"io"

	"costfield/grid_world"
	vi "costfield/value_iteration"

	"github.com/charmbracelet/log"
	channerics "github.com/niceyeti/channerics/channels"
)

// Plan is a solved problem: the grid it was solved on and its converged fields.
type Plan struct {
	Grid   *grid_world.Grid
	Costs  grid_world.TurnCosts
	Result *vi.Result[grid_world.Action]
}

// NewSolver assembles a solver for the problem described by cfg.
func NewSolver(
	cfg *PlannerConfig,
	logger *log.Logger,
	progressFn vi.ProgressFunc,
) (*grid_world.Grid, *vi.Solver[grid_world.Action], error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	rows, err := cfg.TrackRows()
	if err != nil {
		return nil, nil, err
	}
	grid, err := grid_world.NewGrid(rows)
	if err != nil {
		return nil, nil, err
	}
	moves, err := cfg.MoveGenerator(grid)
	if err != nil {
		return nil, nil, err
	}
	mode, workers, maxSweeps, err := cfg.SolverSettings()
	if err != nil {
		return nil, nil, err
	}

	solver, err := vi.NewSolverBuilder[grid_world.Action]().
		WithGrid(grid).
		WithMoves(moves).
		WithCost(cfg.TurnCosts().CostModel()).
		WithGoal(grid.IsGoal).
		WithMode(mode, workers).
		WithMaxSweeps(maxSweeps).
		WithLogger(logger).
		WithProgress(progressFn).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return grid, solver, nil
}

// Run builds and solves the problem described by cfg within its deadline.
// logger and progressFn may be nil.
func Run(
	ctx context.Context,
	cfg *PlannerConfig,
	logger *log.Logger,
	progressFn vi.ProgressFunc,
) (*Plan, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	grid, solver, err := NewSolver(cfg, logger, progressFn)
	if err != nil {
		return nil, err
	}

	solveCtx, cancel, err := cfg.WithDeadline(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	logger.Debug("planning", "track", cfg.Track, "moves", cfg.Moves, "costs", cfg.TurnCosts())
	result, err := solver.Solve(solveCtx)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	return &Plan{
		Grid:   grid,
		Costs:  cfg.TurnCosts(),
		Result: result,
	}, nil
}

// Publisher returns a ProgressFunc that forwards sweep stats to the returned
// channel. A send gives up once ctx or the solve's own context is done.
// The channel is never closed; readers select on their own done channel.
func Publisher(ctx context.Context, buffer int) (vi.ProgressFunc, <-chan vi.SweepStats) {
	updates := make(chan vi.SweepStats, buffer)
	progressFn := func(solveCtx context.Context, stats vi.SweepStats, _ *vi.ValueField) {
		select {
		case <-ctx.Done():
		case <-solveCtx.Done():
		case updates <- stats:
		}
	}
	return progressFn, updates
}

// Drain consumes updates until done closes, passing each to fn.
func Drain(done <-chan struct{}, updates <-chan vi.SweepStats, fn func(vi.SweepStats)) {
	for stats := range channerics.OrDone(done, updates) {
		fn(stats)
	}
}
