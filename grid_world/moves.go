package grid_world

import (
	"fmt"

	vi "costfield/value_iteration"
)

type ActionKind int

const (
	// Forward drives one cell along the current heading.
	Forward ActionKind = iota
	// TurnLeft and TurnRight rotate a quarter turn in place.
	TurnLeft
	TurnRight
	// Reverse backs up one cell, keeping the heading.
	Reverse
	// Step moves one cell in a compass direction and ends up facing it.
	Step
)

func (k ActionKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	case Reverse:
		return "reverse"
	case Step:
		return "step"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is what the policy stores. From is the heading before the action
// and Facing the heading after it, which is all a CostModel needs to charge
// for turning.
type Action struct {
	Kind   ActionKind
	From   vi.Orientation
	Facing vi.Orientation
}

func (a Action) String() string {
	if a.Kind == Step {
		return fmt.Sprintf("%v %v", a.Kind, a.Facing)
	}
	return a.Kind.String()
}

// MarshalText lets actions appear as plain strings in JSON and YAML output.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// HeadingMoves returns a generator for a vehicle that drives forward, turns
// in place, and optionally reverses. Moves into walls or off the grid are
// never generated. Order is forward, left, right, reverse.
func HeadingMoves(grid *Grid, allowReverse bool) vi.MoveGenerator[Action] {
	return func(o vi.Orientation, x, y int) []vi.Move[Action] {
		moves := make([]vi.Move[Action], 0, 4)
		dx, dy := o.Delta()

		if fx, fy := x+dx, y+dy; grid.InBounds(fx, fy) && grid.IsPassable(fx, fy) {
			moves = append(moves, vi.Move[Action]{
				Orientation: o, X: fx, Y: fy,
				Action: Action{Kind: Forward, From: o, Facing: o},
			})
		}
		moves = append(moves,
			vi.Move[Action]{
				Orientation: o.Left(), X: x, Y: y,
				Action: Action{Kind: TurnLeft, From: o, Facing: o.Left()},
			},
			vi.Move[Action]{
				Orientation: o.Right(), X: x, Y: y,
				Action: Action{Kind: TurnRight, From: o, Facing: o.Right()},
			})
		if allowReverse {
			if bx, by := x-dx, y-dy; grid.InBounds(bx, by) && grid.IsPassable(bx, by) {
				moves = append(moves, vi.Move[Action]{
					Orientation: o, X: bx, Y: by,
					Action: Action{Kind: Reverse, From: o, Facing: o},
				})
			}
		}
		return moves
	}
}

// CompassMoves returns a generator that steps one cell in any of the four
// directions, arriving facing the direction moved. The heading before the
// step is kept in the action so turning can still be priced.
func CompassMoves(grid *Grid) vi.MoveGenerator[Action] {
	return func(o vi.Orientation, x, y int) []vi.Move[Action] {
		moves := make([]vi.Move[Action], 0, vi.NumOrientations)
		for _, dir := range vi.Orientations {
			dx, dy := dir.Delta()
			nx, ny := x+dx, y+dy
			if !grid.InBounds(nx, ny) || !grid.IsPassable(nx, ny) {
				continue
			}
			moves = append(moves, vi.Move[Action]{
				Orientation: dir, X: nx, Y: ny,
				Action: Action{Kind: Step, From: o, Facing: dir},
			})
		}
		return moves
	}
}
