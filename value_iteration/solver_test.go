package value_iteration_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"costfield/grid_world"
	vi "costfield/value_iteration"

	. "github.com/smartystreets/goconvey/convey"
)

func mustGrid(track []string) *grid_world.Grid {
	grid, err := grid_world.NewGrid(track)
	if err != nil {
		panic(err)
	}
	return grid
}

func compassSolver(grid *grid_world.Grid, costs grid_world.TurnCosts) *vi.SolverBuilder[grid_world.Action] {
	return vi.NewSolverBuilder[grid_world.Action]().
		WithGrid(grid).
		WithMoves(grid_world.CompassMoves(grid)).
		WithCost(costs.CostModel()).
		WithGoal(grid.IsGoal)
}

func headingSolver(grid *grid_world.Grid, costs grid_world.TurnCosts, allowReverse bool) *vi.SolverBuilder[grid_world.Action] {
	return vi.NewSolverBuilder[grid_world.Action]().
		WithGrid(grid).
		WithMoves(grid_world.HeadingMoves(grid, allowReverse)).
		WithCost(costs.CostModel()).
		WithGoal(grid.IsGoal)
}

func solve(sb *vi.SolverBuilder[grid_world.Action]) (*vi.Result[grid_world.Action], error) {
	solver, err := sb.Build()
	if err != nil {
		return nil, err
	}
	return solver.Solve(context.Background())
}

func amount(c vi.Cost) float64 {
	v, ok := c.Amount()
	So(ok, ShouldBeTrue)
	return v
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// Every finite non-goal state has a policy entry, and every entry achieves
// its state's value exactly.
func assertPolicyConsistent(
	result *vi.Result[grid_world.Action],
	grid *grid_world.Grid,
	costs grid_world.TurnCosts,
) {
	result.Values.Visit(func(o vi.Orientation, x, y int, c vi.Cost) {
		move, ok := result.Policy.MoveAt(o, x, y)
		So(ok, ShouldEqual, c.IsFinite() && !grid.IsGoal(x, y))
		if ok {
			next := result.Values.At(move.Orientation, move.X, move.Y).Plus(costs.Cost(move.Action))
			So(next, ShouldResemble, c)
		}
	})
}

func TestSolveScenarios(t *testing.T) {
	Convey("Given a 3x3 open grid with a single goal in the middle", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"o+o",
			"ooo",
		})
		result, err := solve(compassSolver(grid, grid_world.UniformCosts))
		So(err, ShouldBeNil)

		Convey("Corner values are the Manhattan distance for every orientation", func() {
			for _, o := range vi.Orientations {
				So(amount(result.Values.At(o, 0, 0)), ShouldEqual, 2.0)
				So(amount(result.Values.At(o, 2, 2)), ShouldEqual, 2.0)
				So(amount(result.Values.At(o, 1, 0)), ShouldEqual, 1.0)
			}
		})

		Convey("The corner policy steps to a neighbour strictly closer to the goal", func() {
			for _, o := range vi.Orientations {
				move, ok := result.Policy.MoveAt(o, 0, 0)
				So(ok, ShouldBeTrue)
				So(abs(move.X-1)+abs(move.Y-1), ShouldEqual, 1)
				action, ok := result.Policy.ActionAt(o, 0, 0)
				So(ok, ShouldBeTrue)
				So(action.Kind, ShouldEqual, grid_world.Step)
			}
		})

		Convey("The goal is pinned at zero with no policy entry", func() {
			for _, o := range vi.Orientations {
				So(amount(result.Values.At(o, 1, 1)), ShouldEqual, 0.0)
				_, ok := result.Policy.ActionAt(o, 1, 1)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("Policies achieve their values", func() {
			assertPolicyConsistent(result, grid, grid_world.UniformCosts)
		})
	})

	Convey("Given the same grid with (1,0) blocked", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"o+o",
			"oWo",
		})
		result, err := solve(compassSolver(grid, grid_world.UniformCosts))
		So(err, ShouldBeNil)

		Convey("The blocked cell stays unreachable with no policy for every orientation", func() {
			for _, o := range vi.Orientations {
				So(result.Values.At(o, 1, 0).IsFinite(), ShouldBeFalse)
				_, ok := result.Policy.ActionAt(o, 1, 0)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("The corner routes through its open neighbour", func() {
			for _, o := range vi.Orientations {
				So(amount(result.Values.At(o, 0, 0)), ShouldEqual, 2.0)
				move, ok := result.Policy.MoveAt(o, 0, 0)
				So(ok, ShouldBeTrue)
				So(move.X, ShouldEqual, 0)
				So(move.Y, ShouldEqual, 1)
			}
		})
	})

	Convey("Given a wall between a corner and a corner goal", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"ooo",
			"oW+",
		})
		result, err := solve(compassSolver(grid, grid_world.UniformCosts))
		So(err, ShouldBeNil)

		Convey("The value detours around the wall", func() {
			for _, o := range vi.Orientations {
				So(amount(result.Values.At(o, 0, 0)), ShouldEqual, 4.0)
			}
			assertPolicyConsistent(result, grid, grid_world.UniformCosts)
		})
	})

	Convey("Given a grid with no goals", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"ooo",
		})
		result, err := solve(compassSolver(grid, grid_world.UniformCosts))
		So(err, ShouldBeNil)

		Convey("It converges in a single quiet sweep with everything unreachable", func() {
			So(result.Sweeps, ShouldEqual, 1)
			result.Values.Visit(func(o vi.Orientation, x, y int, c vi.Cost) {
				So(c.IsFinite(), ShouldBeFalse)
				_, ok := result.Policy.ActionAt(o, x, y)
				So(ok, ShouldBeFalse)
			})
			summary := result.Summary()
			So(summary.Reachable, ShouldEqual, 0)
			So(summary.Unreachable, ShouldEqual, vi.NumOrientations*6)
		})
	})

	Convey("Given a cost model that reports a negative cost", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"o+o",
			"ooo",
		})
		_, err := solve(compassSolver(grid, grid_world.UniformCosts).
			WithCost(func(grid_world.Action) float64 { return -1 }))

		Convey("The solve fails with a cost configuration error", func() {
			So(errors.Is(err, vi.ErrConfiguration), ShouldBeTrue)
			So(vi.KindOf(err), ShouldEqual, vi.CostError)
		})
	})

	Convey("Given a cost model that reports NaN", t, func() {
		grid := mustGrid([]string{
			"ooo",
			"o+o",
			"ooo",
		})
		result, err := solve(compassSolver(grid, grid_world.UniformCosts).
			WithCost(func(grid_world.Action) float64 { return math.NaN() }))

		Convey("The solve fails with a cost configuration error", func() {
			So(result, ShouldBeNil)
			So(errors.Is(err, vi.ErrConfiguration), ShouldBeTrue)
			So(vi.KindOf(err), ShouldEqual, vi.CostError)
		})
	})
}

func TestSolveProperties(t *testing.T) {
	costs := grid_world.TurnCosts{Forward: 1, Turn: 0.5, Reverse: 2, Step: 1}
	grid := mustGrid(grid_world.DebugTrack)
	builder := func() *vi.SolverBuilder[grid_world.Action] {
		return vi.NewSolverBuilder[grid_world.Action]().
			WithGrid(grid).
			WithMoves(grid_world.HeadingMoves(grid, true)).
			WithCost(costs.CostModel()).
			WithGoal(grid.IsGoal)
	}

	Convey("Given the debug track with turn and reverse costs", t, func() {
		Convey("Goals are pinned at zero for all orientations", func() {
			result, err := solve(builder())
			So(err, ShouldBeNil)
			for _, cell := range grid.Cells(grid_world.FINISH) {
				for _, o := range vi.Orientations {
					So(result.Values.At(o, cell.X, cell.Y), ShouldResemble, vi.Finite(0))
					_, ok := result.Policy.ActionAt(o, cell.X, cell.Y)
					So(ok, ShouldBeFalse)
				}
			}
		})

		Convey("Walls never become finite and the start line is reachable", func() {
			result, err := solve(builder())
			So(err, ShouldBeNil)
			for _, cell := range grid.Cells(grid_world.WALL) {
				for _, o := range vi.Orientations {
					So(result.Values.At(o, cell.X, cell.Y).IsFinite(), ShouldBeFalse)
				}
			}
			for _, cell := range grid.Cells(grid_world.START) {
				So(result.Values.At(vi.North, cell.X, cell.Y).IsFinite(), ShouldBeTrue)
			}
			assertPolicyConsistent(result, grid, costs)
		})

		Convey("Values never increase from one sweep to the next", func() {
			var previous [vi.NumOrientations][][]vi.Cost
			sweeps := 0
			regressions := 0
			progress := func(_ context.Context, stats vi.SweepStats, values *vi.ValueField) {
				sweeps++
				So(stats.Sweep, ShouldEqual, sweeps)
				for _, o := range vi.Orientations {
					layer := values.Layer(o)
					if previous[o] != nil {
						for x := range layer {
							for y := range layer[x] {
								if previous[o][x][y].Less(layer[x][y]) {
									regressions++
								}
							}
						}
					}
					previous[o] = layer
				}
			}
			result, err := solve(builder().WithProgress(progress))
			So(err, ShouldBeNil)
			So(sweeps, ShouldEqual, result.Sweeps)
			So(regressions, ShouldEqual, 0)
		})

		Convey("Refining a converged result changes nothing", func() {
			solver, err := builder().Build()
			So(err, ShouldBeNil)
			first, err := solver.Solve(context.Background())
			So(err, ShouldBeNil)

			refined, err := solver.Refine(context.Background(), first)
			So(err, ShouldBeNil)
			So(refined.Sweeps, ShouldEqual, 1)
			So(refined.Values.Equal(first.Values), ShouldBeTrue)

			again, err := solver.Solve(context.Background())
			So(err, ShouldBeNil)
			So(again.Values.Equal(first.Values), ShouldBeTrue)
			So(again.Sweeps, ShouldEqual, first.Sweeps)
		})

		Convey("Convergence stays well within the default sweep bound", func() {
			solver, err := builder().Build()
			So(err, ShouldBeNil)
			result, err := solver.Solve(context.Background())
			So(err, ShouldBeNil)
			width, height := grid.Dimensions()
			So(result.Sweeps, ShouldBeLessThanOrEqualTo, vi.NumOrientations*width*height+1)
			So(solver.MaxSweeps(), ShouldEqual, vi.DefaultMaxSweeps(width, height))
		})
	})
}

func TestTurnCosts(t *testing.T) {
	Convey("Given a three cell corridor ending in a goal", t, func() {
		grid := mustGrid([]string{"oo+"})
		costs := grid_world.TurnCosts{Forward: 1, Turn: 0.5, Reverse: 1.5}

		Convey("Without reversing, the cost depends on how far the agent must turn", func() {
			result, err := solve(vi.NewSolverBuilder[grid_world.Action]().
				WithGrid(grid).
				WithMoves(grid_world.HeadingMoves(grid, false)).
				WithCost(costs.CostModel()).
				WithGoal(grid.IsGoal))
			So(err, ShouldBeNil)

			So(amount(result.Values.At(vi.East, 0, 0)), ShouldEqual, 2.0)
			So(amount(result.Values.At(vi.North, 0, 0)), ShouldEqual, 2.5)
			So(amount(result.Values.At(vi.South, 0, 0)), ShouldEqual, 2.5)
			So(amount(result.Values.At(vi.West, 0, 0)), ShouldEqual, 3.0)

			action, ok := result.Policy.ActionAt(vi.North, 0, 0)
			So(ok, ShouldBeTrue)
			So(action.Kind, ShouldEqual, grid_world.TurnRight)
			action, ok = result.Policy.ActionAt(vi.South, 0, 0)
			So(ok, ShouldBeTrue)
			So(action.Kind, ShouldEqual, grid_world.TurnLeft)
			assertPolicyConsistent(result, grid, costs)
		})

		Convey("With reversing, backing into the goal beats turning around", func() {
			result, err := solve(vi.NewSolverBuilder[grid_world.Action]().
				WithGrid(grid).
				WithMoves(grid_world.HeadingMoves(grid, true)).
				WithCost(costs.CostModel()).
				WithGoal(grid.IsGoal))
			So(err, ShouldBeNil)

			So(amount(result.Values.At(vi.West, 1, 0)), ShouldEqual, 1.5)
			action, ok := result.Policy.ActionAt(vi.West, 1, 0)
			So(ok, ShouldBeTrue)
			So(action.Kind, ShouldEqual, grid_world.Reverse)
		})

		Convey("An infinitely costly reverse is never chosen", func() {
			forbidden := grid_world.TurnCosts{Forward: 1, Turn: 0.5, Reverse: math.Inf(1)}
			withReverse, err := solve(headingSolver(grid, forbidden, true))
			So(err, ShouldBeNil)
			withoutReverse, err := solve(headingSolver(grid, forbidden, false))
			So(err, ShouldBeNil)

			So(withReverse.Values.Equal(withoutReverse.Values), ShouldBeTrue)
			So(amount(withReverse.Values.At(vi.West, 1, 0)), ShouldEqual, 2.0)
			withReverse.Values.Visit(func(o vi.Orientation, x, y int, _ vi.Cost) {
				if action, ok := withReverse.Policy.ActionAt(o, x, y); ok {
					So(action.Kind, ShouldNotEqual, grid_world.Reverse)
				}
			})
			assertPolicyConsistent(withReverse, grid, forbidden)
		})

		Convey("A free forward move leaves a non-goal state at zero with a policy entry", func() {
			free := grid_world.TurnCosts{Forward: 0, Turn: 1, Reverse: 1}
			solver, err := headingSolver(grid, free, false).Build()
			So(err, ShouldBeNil)
			result, err := solver.Solve(context.Background())
			So(err, ShouldBeNil)

			So(result.Values.At(vi.East, 1, 0), ShouldResemble, vi.Finite(0))
			So(result.Values.At(vi.East, 0, 0), ShouldResemble, vi.Finite(0))
			So(amount(result.Values.At(vi.North, 1, 0)), ShouldEqual, 1.0)
			action, ok := result.Policy.ActionAt(vi.East, 1, 0)
			So(ok, ShouldBeTrue)
			So(action.Kind, ShouldEqual, grid_world.Forward)
			_, ok = result.Policy.ActionAt(vi.East, 2, 0)
			So(ok, ShouldBeFalse)
			assertPolicyConsistent(result, grid, free)

			refined, err := solver.Refine(context.Background(), result)
			So(err, ShouldBeNil)
			So(refined.Sweeps, ShouldEqual, 1)
			So(refined.Values.Equal(result.Values), ShouldBeTrue)
		})
	})
}

func TestRefine(t *testing.T) {
	costs := grid_world.TurnCosts{Forward: 1, Turn: 0.5, Reverse: 1.5}

	Convey("Given a solver over a corridor with one goal", t, func() {
		grid := mustGrid([]string{"oo+"})
		solver, err := headingSolver(grid, costs, true).Build()
		So(err, ShouldBeNil)

		Convey("Refining nothing is a solver error", func() {
			result, err := solver.Refine(context.Background(), nil)
			So(result, ShouldBeNil)
			So(vi.KindOf(err), ShouldEqual, vi.SolverError)

			_, err = solver.Refine(context.Background(), &vi.Result[grid_world.Action]{})
			So(vi.KindOf(err), ShouldEqual, vi.SolverError)
		})

		Convey("Refining a result of another size is a grid error", func() {
			other := mustGrid([]string{
				"ooo",
				"o+o",
			})
			prev, err := solve(headingSolver(other, costs, true))
			So(err, ShouldBeNil)
			result, err := solver.Refine(context.Background(), prev)
			So(result, ShouldBeNil)
			So(errors.Is(err, vi.ErrConfiguration), ShouldBeTrue)
			So(vi.KindOf(err), ShouldEqual, vi.GridError)
		})

		Convey("Refining a result solved with an extra goal is a grid error", func() {
			prev, err := solve(headingSolver(mustGrid([]string{"o++"}), costs, true))
			So(err, ShouldBeNil)
			result, err := solver.Refine(context.Background(), prev)
			So(result, ShouldBeNil)
			So(vi.KindOf(err), ShouldEqual, vi.GridError)
		})

		Convey("Refining a result solved with fewer goals reaches the fresh solution", func() {
			twoGoals := mustGrid([]string{"o++"})
			prev, err := solve(headingSolver(grid, costs, true))
			So(err, ShouldBeNil)

			more, err := headingSolver(twoGoals, costs, true).Build()
			So(err, ShouldBeNil)
			refined, err := more.Refine(context.Background(), prev)
			So(err, ShouldBeNil)
			fresh, err := more.Solve(context.Background())
			So(err, ShouldBeNil)

			So(refined.Values.Equal(fresh.Values), ShouldBeTrue)
			So(refined.Values.At(vi.West, 1, 0), ShouldResemble, vi.Finite(0))
			_, ok := refined.Policy.ActionAt(vi.West, 1, 0)
			So(ok, ShouldBeFalse)
			assertPolicyConsistent(refined, twoGoals, costs)
			// prev is left as it was.
			So(amount(prev.Values.At(vi.West, 1, 0)), ShouldEqual, 1.5)
		})
	})
}

func TestJacobi(t *testing.T) {
	Convey("Given the full track with turn costs", t, func() {
		grid := mustGrid(grid_world.FullTrack)
		costs := grid_world.TurnCosts{Forward: 1, Turn: 0.25, Reverse: 3}
		builder := func() *vi.SolverBuilder[grid_world.Action] {
			return vi.NewSolverBuilder[grid_world.Action]().
				WithGrid(grid).
				WithMoves(grid_world.HeadingMoves(grid, true)).
				WithCost(costs.CostModel()).
				WithGoal(grid.IsGoal)
		}

		Convey("Jacobi sweeps reach the same fixed point as Gauss-Seidel", func() {
			gaussSeidel, err := solve(builder())
			So(err, ShouldBeNil)

			for _, workers := range []int{1, 3, 64} {
				jacobi, err := solve(builder().WithMode(vi.Jacobi, workers))
				So(err, ShouldBeNil)
				So(jacobi.Values.Equal(gaussSeidel.Values), ShouldBeTrue)
				So(jacobi.Sweeps, ShouldBeGreaterThanOrEqualTo, gaussSeidel.Sweeps)
				assertPolicyConsistent(jacobi, grid, costs)
			}
		})

		Convey("A failing cost model aborts every worker", func() {
			_, err := solve(builder().
				WithMode(vi.Jacobi, 4).
				WithCost(func(a grid_world.Action) float64 {
					if a.Kind == grid_world.Reverse {
						return -0.5
					}
					return 1
				}))
			So(vi.KindOf(err), ShouldEqual, vi.CostError)
		})
	})
}

// corridor is a width x 1 grid.
type corridor int

func (c corridor) Dimensions() (int, int) { return int(c), 1 }
func (c corridor) IsPassable(x, y int) bool { return true }

func TestConfigurationErrors(t *testing.T) {
	stepEast := func(o vi.Orientation, x, y int) []vi.Move[string] {
		return []vi.Move[string]{{Orientation: o, X: x + 1, Y: y, Action: "east"}}
	}
	unitCost := func(string) float64 { return 1 }
	lastIsGoal := func(n int) vi.GoalPredicate {
		return func(x, y int) bool { return x == n-1 }
	}

	Convey("Builder validation", t, func() {
		Convey("Missing collaborators are reported", func() {
			_, err := vi.NewSolverBuilder[string]().Build()
			So(errors.Is(err, vi.ErrNoGrid), ShouldBeTrue)
			_, err = vi.NewSolverBuilder[string]().WithGrid(corridor(3)).Build()
			So(errors.Is(err, vi.ErrNoMoves), ShouldBeTrue)
			_, err = vi.NewSolverBuilder[string]().WithGrid(corridor(3)).WithMoves(stepEast).Build()
			So(errors.Is(err, vi.ErrNoCost), ShouldBeTrue)
			_, err = vi.NewSolverBuilder[string]().WithGrid(corridor(3)).WithMoves(stepEast).WithCost(unitCost).Build()
			So(errors.Is(err, vi.ErrNoGoal), ShouldBeTrue)
			So(errors.Is(err, vi.ErrConfiguration), ShouldBeTrue)
		})

		Convey("A zero dimension grid is rejected", func() {
			_, err := vi.NewSolverBuilder[string]().
				WithGrid(corridor(0)).WithMoves(stepEast).WithCost(unitCost).WithGoal(lastIsGoal(0)).
				Build()
			So(vi.KindOf(err), ShouldEqual, vi.GridError)
		})

		Convey("A ragged passability matrix is rejected", func() {
			_, err := vi.NewPassabilityGrid([][]bool{{true, true}, {true}})
			So(vi.KindOf(err), ShouldEqual, vi.GridError)
		})

		Convey("A goal on an impassable cell is rejected", func() {
			grid, err := vi.NewPassabilityGrid([][]bool{{true}, {false}})
			So(err, ShouldBeNil)
			_, err = vi.NewSolverBuilder[string]().
				WithGrid(grid).WithMoves(stepEast).WithCost(unitCost).WithGoal(lastIsGoal(2)).
				Build()
			So(vi.KindOf(err), ShouldEqual, vi.GridError)
		})
	})

	Convey("Move validation", t, func() {
		Convey("A move off the grid is a move error", func() {
			solver, err := vi.NewSolverBuilder[string]().
				WithGrid(corridor(3)).WithMoves(stepEast).WithCost(unitCost).
				WithGoal(func(x, y int) bool { return x == 0 }).
				Build()
			So(err, ShouldBeNil)
			_, err = solver.Solve(context.Background())
			So(vi.KindOf(err), ShouldEqual, vi.MoveError)
		})

		Convey("A move to an invalid orientation is a move error", func() {
			solver, err := vi.NewSolverBuilder[string]().
				WithGrid(corridor(3)).
				WithMoves(func(o vi.Orientation, x, y int) []vi.Move[string] {
					return []vi.Move[string]{{Orientation: 7, X: x, Y: y, Action: "spin"}}
				}).
				WithCost(unitCost).WithGoal(lastIsGoal(3)).
				Build()
			So(err, ShouldBeNil)
			_, err = solver.Solve(context.Background())
			So(vi.KindOf(err), ShouldEqual, vi.MoveError)
		})
	})

	Convey("Given a corridor whose values propagate one cell per sweep", t, func() {
		// Sweeps scan x upward, so with the goal at the east end each sweep
		// reaches exactly one more cell.
		stepTowardEnd := func(o vi.Orientation, x, y int) []vi.Move[string] {
			if x == 9 {
				return nil
			}
			return []vi.Move[string]{{Orientation: o, X: x + 1, Y: y, Action: "east"}}
		}
		Convey("Exceeding the sweep bound is a configuration error", func() {
			solver, err := vi.NewSolverBuilder[string]().
				WithGrid(corridor(10)).WithMoves(stepTowardEnd).WithCost(unitCost).WithGoal(lastIsGoal(10)).
				WithMaxSweeps(2).
				Build()
			So(err, ShouldBeNil)
			_, err = solver.Solve(context.Background())
			So(vi.KindOf(err), ShouldEqual, vi.SweepBoundError)
		})

		Convey("Without the bound it converges with exact distances", func() {
			solver, err := vi.NewSolverBuilder[string]().
				WithGrid(corridor(10)).WithMoves(stepTowardEnd).WithCost(unitCost).WithGoal(lastIsGoal(10)).
				Build()
			So(err, ShouldBeNil)
			result, err := solver.Solve(context.Background())
			So(err, ShouldBeNil)
			for x := 0; x < 10; x++ {
				So(amount(result.Values.At(vi.East, x, 0)), ShouldEqual, float64(9-x))
			}
			So(result.Sweeps, ShouldEqual, 10)
		})
	})
}

func TestCancellation(t *testing.T) {
	grid := mustGrid(grid_world.DebugTrack)

	Convey("A solve cancelled before it starts returns the context error", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		solver, err := compassSolver(grid, grid_world.UniformCosts).Build()
		So(err, ShouldBeNil)
		result, err := solver.Solve(ctx)
		So(result, ShouldBeNil)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(errors.Is(err, vi.ErrConfiguration), ShouldBeFalse)
	})

	Convey("Cancellation is observed at the next sweep boundary", t, func() {
		for _, mode := range []vi.Mode{vi.GaussSeidel, vi.Jacobi} {
			ctx, cancel := context.WithCancel(context.Background())
			sweeps := 0
			solver, err := compassSolver(grid, grid_world.UniformCosts).
				WithMode(mode, 2).
				WithProgress(func(context.Context, vi.SweepStats, *vi.ValueField) {
					sweeps++
					cancel()
				}).
				Build()
			So(err, ShouldBeNil)
			result, err := solver.Solve(ctx)
			So(result, ShouldBeNil)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(sweeps, ShouldEqual, 1)
		}
	})
}
