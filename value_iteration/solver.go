/*
Package value_iteration computes orientation-aware cost-to-go fields over a
static grid: for every cell and each of four headings, the cheapest way to
reach a goal and the move that achieves it. Costs may depend on heading, e.g.
a vehicle that pays to turn, which is why orientation is part of the state.

The core loop is plain dynamic programming. Values start at zero on goals and
Unreachable elsewhere, and each sweep relaxes every (orientation, cell) against
its candidate moves until a full sweep changes nothing. Updates are written in
place (Gauss-Seidel), so a sweep sees the improvements made earlier in the same
sweep. The number of sweeps therefore depends on traversal order; the fixed
point does not. Jacobi mode trades that for parallelism: workers read the
previous sweep's snapshot and write a second buffer, then the buffers swap.
*/
package value_iteration

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// Mode selects how sweeps read and write the value field.
type Mode int

const (
	// GaussSeidel relaxes in place on a single goroutine.
	GaussSeidel Mode = iota
	// Jacobi double-buffers and relaxes column stripes concurrently.
	Jacobi
)

func (m Mode) String() string {
	switch m {
	case GaussSeidel:
		return "gauss-seidel"
	case Jacobi:
		return "jacobi"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "gauss-seidel":
		return GaussSeidel, nil
	case "jacobi":
		return Jacobi, nil
	}
	return 0, NewConfigurationError(SolverError, "unknown sweep mode %q", s)
}

// SweepStats summarises one sweep. Improvement sums the decrease of values
// that were already finite; Reached counts states that became finite.
type SweepStats struct {
	Sweep       int           `json:"sweep" yaml:"sweep"`
	Updates     int           `json:"updates" yaml:"updates"`
	Reached     int           `json:"reached" yaml:"reached"`
	Improvement float64       `json:"improvement" yaml:"improvement"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

func (stats *SweepStats) record(previous, updated Cost) {
	stats.Updates++
	if old, ok := previous.Amount(); ok {
		now, _ := updated.Amount()
		stats.Improvement += old - now
	} else {
		stats.Reached++
	}
}

// ProgressFunc is called synchronously after every sweep with the sweep's
// stats and the current value field. The field must be treated as read-only
// and must not be retained past the call. Keep it quick; the solve waits.
type ProgressFunc func(context.Context, SweepStats, *ValueField)

// Result is the converged output of a solve. Nothing mutates it afterward.
type Result[A any] struct {
	Values  *ValueField
	Policy  *PolicyField[A]
	Sweeps  int
	Elapsed time.Duration
}

// Summary counts reachable and unreachable states of a result.
type Summary struct {
	Width       int `json:"width" yaml:"width"`
	Height      int `json:"height" yaml:"height"`
	Sweeps      int `json:"sweeps" yaml:"sweeps"`
	Reachable   int `json:"reachable" yaml:"reachable"`
	Unreachable int `json:"unreachable" yaml:"unreachable"`
}

func (r *Result[A]) Summary() (summary Summary) {
	summary.Width, summary.Height = r.Values.Dimensions()
	summary.Sweeps = r.Sweeps
	r.Values.Visit(func(_ Orientation, _, _ int, c Cost) {
		if c.IsFinite() {
			summary.Reachable++
		} else {
			summary.Unreachable++
		}
	})
	return
}

// DefaultMaxSweeps bounds a solve on a width x height grid. With non-negative
// costs a fixed point is reached within one sweep per state plus a final quiet
// sweep; the bound doubles that before declaring the inputs broken.
func DefaultMaxSweeps(width, height int) int {
	return 2*(NumOrientations*width*height) + 2
}

// SolverBuilder collects the collaborators of a Solver. Build validates them.
type SolverBuilder[A any] struct {
	grid      GridModel
	moves     MoveGenerator[A]
	cost      CostModel[A]
	isGoal    GoalPredicate
	mode      Mode
	workers   int
	maxSweeps int
	logger    *log.Logger
	progress  ProgressFunc
}

// NewSolverBuilder returns a builder for solvers over actions of type A.
func NewSolverBuilder[A any]() *SolverBuilder[A] {
	return &SolverBuilder[A]{}
}

func (sb *SolverBuilder[A]) WithGrid(grid GridModel) *SolverBuilder[A] {
	sb.grid = grid
	return sb
}

func (sb *SolverBuilder[A]) WithMoves(moves MoveGenerator[A]) *SolverBuilder[A] {
	sb.moves = moves
	return sb
}

func (sb *SolverBuilder[A]) WithCost(cost CostModel[A]) *SolverBuilder[A] {
	sb.cost = cost
	return sb
}

func (sb *SolverBuilder[A]) WithGoal(isGoal GoalPredicate) *SolverBuilder[A] {
	sb.isGoal = isGoal
	return sb
}

// WithMode selects the sweep mode. workers only matters for Jacobi; zero or
// less means one per CPU.
func (sb *SolverBuilder[A]) WithMode(mode Mode, workers int) *SolverBuilder[A] {
	sb.mode = mode
	sb.workers = workers
	return sb
}

// WithMaxSweeps overrides DefaultMaxSweeps. Zero keeps the default.
func (sb *SolverBuilder[A]) WithMaxSweeps(maxSweeps int) *SolverBuilder[A] {
	sb.maxSweeps = maxSweeps
	return sb
}

func (sb *SolverBuilder[A]) WithLogger(logger *log.Logger) *SolverBuilder[A] {
	sb.logger = logger
	return sb
}

func (sb *SolverBuilder[A]) WithProgress(progress ProgressFunc) *SolverBuilder[A] {
	sb.progress = progress
	return sb
}

// Build validates the collaborators and the grid shape, and precomputes the
// goal mask. A goal on an impassable cell is rejected, since goals are pinned
// at zero and impassable cells must never become finite.
func (sb *SolverBuilder[A]) Build() (*Solver[A], error) {
	switch {
	case sb.grid == nil:
		return nil, ErrNoGrid
	case sb.moves == nil:
		return nil, ErrNoMoves
	case sb.cost == nil:
		return nil, ErrNoCost
	case sb.isGoal == nil:
		return nil, ErrNoGoal
	}

	width, height := sb.grid.Dimensions()
	if width <= 0 || height <= 0 {
		return nil, NewConfigurationError(GridError, "grid dimensions %dx%d must be positive", width, height)
	}
	if sb.mode != GaussSeidel && sb.mode != Jacobi {
		return nil, NewConfigurationError(SolverError, "unknown sweep mode %v", sb.mode)
	}
	if sb.maxSweeps < 0 {
		return nil, NewConfigurationError(SolverError, "max sweeps %d must not be negative", sb.maxSweeps)
	}

	goals := make([][]bool, width)
	for x := range goals {
		goals[x] = make([]bool, height)
		for y := range goals[x] {
			if !sb.isGoal(x, y) {
				continue
			}
			if !sb.grid.IsPassable(x, y) {
				return nil, NewConfigurationError(GridError, "goal cell (%d,%d) is impassable", x, y)
			}
			goals[x][y] = true
		}
	}

	solver := &Solver[A]{
		grid:      sb.grid,
		moves:     sb.moves,
		cost:      sb.cost,
		goals:     goals,
		width:     width,
		height:    height,
		mode:      sb.mode,
		maxSweeps: sb.maxSweeps,
		logger:    sb.logger,
		progress:  sb.progress,
	}
	if solver.maxSweeps == 0 {
		solver.maxSweeps = DefaultMaxSweeps(width, height)
	}
	if solver.logger == nil {
		solver.logger = log.New(io.Discard)
	}
	if solver.mode == Jacobi {
		workers := sb.workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		solver.stripes = makeStripes(width, workers)
	}

	return solver, nil
}

// Solver runs value iteration for one problem. It holds no per-solve state,
// so Solve may be called repeatedly and concurrently.
type Solver[A any] struct {
	grid      GridModel
	moves     MoveGenerator[A]
	cost      CostModel[A]
	goals     [][]bool
	width     int
	height    int
	mode      Mode
	stripes   []stripe
	maxSweeps int
	logger    *log.Logger
	progress  ProgressFunc
}

func (s *Solver[A]) Dimensions() (int, int) {
	return s.width, s.height
}

func (s *Solver[A]) MaxSweeps() int {
	return s.maxSweeps
}

// Solve computes the converged value and policy fields from scratch.
// Cancellation is honoured between sweeps only; a cancelled solve returns the
// context's error and no fields.
func (s *Solver[A]) Solve(ctx context.Context) (*Result[A], error) {
	values := newValueField(s.width, s.height)
	policy := newPolicyField[A](s.width, s.height)
	s.reset(values, policy)
	return s.run(ctx, values, policy)
}

// Refine resumes from a previous result of a solver over the same grid,
// goals, moves and costs. prev is not modified. Values never rise during a
// solve, so refining a converged result finishes after a single quiet sweep
// with an identical field. A result solved with a goal this solver lacks is
// rejected: values derived from that goal would stay too low.
func (s *Solver[A]) Refine(ctx context.Context, prev *Result[A]) (*Result[A], error) {
	if prev == nil || prev.Values == nil || prev.Policy == nil {
		return nil, NewConfigurationError(SolverError, "nothing to refine")
	}
	if w, h := prev.Values.Dimensions(); w != s.width || h != s.height {
		return nil, NewConfigurationError(
			GridError, "cannot refine a %dx%d result on a %dx%d grid", w, h, s.width, s.height)
	}
	if x, y, found := s.foreignGoal(prev.Values, prev.Policy); found {
		return nil, NewConfigurationError(
			GridError, "cannot refine a result solved with a goal at (%d, %d)", x, y)
	}
	values := prev.Values.clone()
	policy := prev.Policy.clone()
	s.reset(values, policy)
	return s.run(ctx, values, policy)
}

// foreignGoal finds a passable non-goal cell that holds a finite value with no
// policy entry. Only a goal of the solver that produced the field looks so.
func (s *Solver[A]) foreignGoal(values *ValueField, policy *PolicyField[A]) (int, int, bool) {
	for x := 0; x < s.width; x++ {
		for y := 0; y < s.height; y++ {
			if !s.relaxable(x, y) {
				continue
			}
			for _, o := range Orientations {
				if _, set := policy.MoveAt(o, x, y); !set && values.At(o, x, y).IsFinite() {
					return x, y, true
				}
			}
		}
	}
	return 0, 0, false
}

// reset pins goals at zero and forces impassable cells back to Unreachable,
// dropping any policy entries on either.
func (s *Solver[A]) reset(values *ValueField, policy *PolicyField[A]) {
	for x := 0; x < s.width; x++ {
		for y := 0; y < s.height; y++ {
			goal := s.goals[x][y]
			if !goal && s.grid.IsPassable(x, y) {
				continue
			}
			for _, o := range Orientations {
				if goal {
					values.set(o, x, y, Finite(0))
				} else {
					values.set(o, x, y, Unreachable())
				}
				policy.layers[o][x][y] = policyEntry[A]{}
			}
		}
	}
}

func (s *Solver[A]) run(
	ctx context.Context,
	values *ValueField,
	policy *PolicyField[A],
) (result *Result[A], err error) {
	start := time.Now()
	mode := s.mode.String()
	defer func() {
		outcome := "converged"
		if err != nil {
			outcome = "failed"
			kind := string(KindOf(err))
			if kind == "" {
				kind = "interrupted"
			}
			solveErrors.WithLabelValues(kind).Inc()
			s.logger.Error("solve failed", "mode", mode, "err", err)
		}
		solveDuration.WithLabelValues(mode, outcome).Observe(time.Since(start).Seconds())
	}()

	s.logger.Info("solving",
		"width", s.width,
		"height", s.height,
		"mode", mode,
		"maxSweeps", s.maxSweeps)

	// Jacobi reads one buffer and writes the other.
	var spareValues *ValueField
	var sparePolicy *PolicyField[A]
	if s.mode == Jacobi {
		spareValues = values.clone()
		sparePolicy = policy.clone()
	}

	for sweep := 1; ; sweep++ {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("solve interrupted before sweep %d: %w", sweep, err)
		}
		if sweep > s.maxSweeps {
			return nil, NewConfigurationError(
				SweepBoundError, "no fixed point after %d sweeps", s.maxSweeps)
		}

		sweepStart := time.Now()
		var stats SweepStats
		if s.mode == Jacobi {
			stats, err = s.sweepJacobi(ctx, values, policy, spareValues, sparePolicy)
			values, spareValues = spareValues, values
			policy, sparePolicy = sparePolicy, policy
		} else {
			stats, err = s.sweepInPlace(values, policy)
		}
		if err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep, err)
		}
		stats.Sweep = sweep
		stats.Elapsed = time.Since(sweepStart)

		sweepTotal.WithLabelValues(mode).Inc()
		stateUpdateTotal.WithLabelValues(mode).Add(float64(stats.Updates))
		s.logger.Debug("sweep",
			"sweep", sweep,
			"updates", stats.Updates,
			"reached", stats.Reached,
			"improvement", stats.Improvement)

		if s.progress != nil {
			s.progress(ctx, stats, values)
		}

		if stats.Updates == 0 {
			result = &Result[A]{
				Values:  values,
				Policy:  policy,
				Sweeps:  sweep,
				Elapsed: time.Since(start),
			}
			solveSweeps.Observe(float64(sweep))
			s.logger.Info("converged", "sweeps", sweep, "elapsed", result.Elapsed)
			return result, nil
		}
	}
}

// relaxable reports whether (x, y) takes part in a sweep. Goals are pinned at
// zero, which no candidate can strictly beat.
func (s *Solver[A]) relaxable(x, y int) bool {
	return !s.goals[x][y] && s.grid.IsPassable(x, y)
}

// sweepInPlace is one Gauss-Seidel pass: improvements are visible to every
// state processed after them in the same pass.
func (s *Solver[A]) sweepInPlace(values *ValueField, policy *PolicyField[A]) (stats SweepStats, err error) {
	for x := 0; x < s.width; x++ {
		for y := 0; y < s.height; y++ {
			if !s.relaxable(x, y) {
				continue
			}
			for _, o := range Orientations {
				current := values.At(o, x, y)
				best, move, improved, relaxErr := s.relax(o, x, y, current, values)
				if relaxErr != nil {
					return stats, relaxErr
				}
				if improved {
					values.set(o, x, y, best)
					policy.set(o, x, y, move)
					stats.record(current, best)
				}
			}
		}
	}
	return
}

// relax finds the first candidate move that strictly beats current, reading
// successor values from read. Later candidates must beat the running best,
// so ties go to the earlier move.
func (s *Solver[A]) relax(
	o Orientation,
	x, y int,
	current Cost,
	read *ValueField,
) (best Cost, move Move[A], improved bool, err error) {
	best = current
	for _, candidate := range s.moves(o, x, y) {
		if err = s.checkMove(o, x, y, candidate); err != nil {
			return
		}
		step := s.cost(candidate.Action)
		if step < 0 || math.IsNaN(step) {
			err = NewConfigurationError(
				CostError, "action %v from (%v,%d,%d) costs %v", candidate.Action, o, x, y, step)
			return
		}
		total := read.At(candidate.Orientation, candidate.X, candidate.Y).Plus(step)
		if total.Less(best) {
			best = total
			move = candidate
			improved = true
		}
	}
	return
}

func (s *Solver[A]) checkMove(o Orientation, x, y int, mv Move[A]) error {
	if !mv.Orientation.Valid() {
		return NewConfigurationError(
			MoveError, "move from (%v,%d,%d) yields invalid orientation %d", o, x, y, int(mv.Orientation))
	}
	if mv.X < 0 || mv.X >= s.width || mv.Y < 0 || mv.Y >= s.height {
		return NewConfigurationError(
			MoveError, "move from (%v,%d,%d) lands at (%d,%d), outside the %dx%d grid",
			o, x, y, mv.X, mv.Y, s.width, s.height)
	}
	return nil
}
