package value_iteration

import "fmt"

// Orientation is one of four facing directions. It is only ever used as an
// array axis, so the ordering carries no meaning beyond identity, except that
// turning right steps forward through it.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

const NumOrientations = 4

// Orientations lists every orientation in index order, for ranging over.
var Orientations = [NumOrientations]Orientation{North, East, South, West}

func (o Orientation) Valid() bool {
	return o >= North && o <= West
}

func (o Orientation) Left() Orientation {
	return (o + NumOrientations - 1) % NumOrientations
}

func (o Orientation) Right() Orientation {
	return (o + 1) % NumOrientations
}

func (o Orientation) Reverse() Orientation {
	return (o + 2) % NumOrientations
}

// Delta is the unit displacement of one step forward. Grids are indexed with
// (0,0) at the bottom left, so North is +y.
func (o Orientation) Delta() (dx, dy int) {
	switch o {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	}
	return 0, 0
}

func (o Orientation) String() string {
	switch o {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// ParseOrientation accepts either the compass letter or the index.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "N", "n", "0":
		return North, nil
	case "E", "e", "1":
		return East, nil
	case "S", "s", "2":
		return South, nil
	case "W", "w", "3":
		return West, nil
	}
	return 0, fmt.Errorf("invalid orientation %q", s)
}

// Cell is a grid coordinate.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Move is one candidate transition: taking Action lands the agent facing
// Orientation at (X, Y). The action itself is opaque to the engine and is
// only handed to the CostModel and stored in the policy.
type Move[A any] struct {
	Orientation Orientation
	X, Y        int
	Action      A
}

// GridModel is static terrain. Both methods are called many times per sweep
// and must be O(1) and side-effect free.
type GridModel interface {
	Dimensions() (width, height int)
	IsPassable(x, y int) bool
}

// MoveGenerator enumerates candidate moves from a state. It must return the
// same moves in the same order for the same inputs, since ties are broken by
// enumeration order. Every returned coordinate must lie within the grid.
type MoveGenerator[A any] func(o Orientation, x, y int) []Move[A]

// CostModel prices an action. Turn costs belong in here. It must never
// return a negative amount; +Inf marks an action as forbidden.
type CostModel[A any] func(action A) float64

// GoalPredicate reports goal cells, independent of orientation.
type GoalPredicate func(x, y int) bool

// PassabilityGrid is a GridModel over a plain [x][y] boolean matrix.
type PassabilityGrid struct {
	cells         [][]bool
	width, height int
}

// NewPassabilityGrid validates that cells is non-empty and rectangular.
// The matrix is indexed [x][y] and is not copied.
func NewPassabilityGrid(cells [][]bool) (*PassabilityGrid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, NewConfigurationError(GridError, "grid has a zero dimension")
	}
	height := len(cells[0])
	for x, column := range cells {
		if len(column) != height {
			return nil, NewConfigurationError(
				GridError,
				"ragged grid: column %d has %d cells, expected %d", x, len(column), height)
		}
	}
	return &PassabilityGrid{
		cells:  cells,
		width:  len(cells),
		height: height,
	}, nil
}

func (pg *PassabilityGrid) Dimensions() (int, int) {
	return pg.width, pg.height
}

func (pg *PassabilityGrid) IsPassable(x, y int) bool {
	return pg.cells[x][y]
}
