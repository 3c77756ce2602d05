package grid_world

import (
	vi "costfield/value_iteration"
)

// Track cell types
const (
	WALL   = 'W'
	TRACK  = 'o'
	START  = '-'
	FINISH = '+'
)

// The classical track and a smaller debug track for development.
// FINISH cells are the goals; everything but WALL is passable.
var (
	DebugTrack []string = []string{
		"WWWWWW",
		"Woooo+",
		"Woooo+",
		"WooWWW",
		"WooWWW",
		"WooWWW",
		"WooWWW",
		"W--WWW",
	}

	FullTrack []string = []string{
		"WWWWWWWWWWWWWWWWWW",
		"WWWWooooooooooooo+",
		"WWWoooooooooooooo+",
		"WWWoooooooooooooo+",
		"WWooooooooooooooo+",
		"Woooooooooooooooo+",
		"Woooooooooooooooo+",
		"WooooooooooWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WoooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWooooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWoooooooWWWWWWWW",
		"WWWWooooooWWWWWWWW",
		"WWWWooooooWWWWWWWW",
		"WWWW------WWWWWWWW",
	}
)

// Tracks maps the names accepted in config to the built-in tracks.
var Tracks = map[string][]string{
	"debug": DebugTrack,
	"full":  FullTrack,
}

// Grid is immutable terrain indexed [x][y].
type Grid struct {
	cells         [][]rune
	width, height int
}

// NewGrid converts track rows, as printed top to bottom, into a Grid.
// The orientation is such that the bottom/left most position of the track
// (when printed in a console) is (0,0), so North is +y. Rows must be
// non-empty and of equal length; unknown markers are rejected.
func NewGrid(track []string) (*Grid, error) {
	if len(track) == 0 || len(track[0]) == 0 {
		return nil, vi.NewConfigurationError(vi.GridError, "track has a zero dimension")
	}

	rows := make([][]rune, len(track))
	for i, row := range track {
		rows[i] = []rune(row)
	}
	width := len(rows[0])
	height := len(rows)
	for i, row := range rows {
		if len(row) != width {
			return nil, vi.NewConfigurationError(
				vi.GridError, "ragged track: row %d has %d cells, expected %d", i, len(row), width)
		}
	}

	cells := make([][]rune, width)
	for x := 0; x < width; x++ {
		cells[x] = make([]rune, height)
		for y := 0; y < height; y++ {
			cellType := rows[height-y-1][x]
			switch cellType {
			case WALL, TRACK, START, FINISH:
			default:
				return nil, vi.NewConfigurationError(
					vi.GridError, "unknown cell type %q at (%d,%d)", cellType, x, y)
			}
			cells[x][y] = cellType
		}
	}

	return &Grid{
		cells:  cells,
		width:  width,
		height: height,
	}, nil
}

func (g *Grid) Dimensions() (int, int) {
	return g.width, g.height
}

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) CellType(x, y int) rune {
	return g.cells[x][y]
}

func (g *Grid) IsPassable(x, y int) bool {
	return g.cells[x][y] != WALL
}

func (g *Grid) IsGoal(x, y int) bool {
	return g.cells[x][y] == FINISH
}

// Cells returns every cell of the given type, scanning x then y.
func (g *Grid) Cells(cellType rune) (cells []vi.Cell) {
	g.Visit(func(x, y int, ct rune) {
		if ct == cellType {
			cells = append(cells, vi.Cell{X: x, Y: y})
		}
	})
	return
}

// Visit calls fn for every cell.
func (g *Grid) Visit(fn func(x, y int, cellType rune)) {
	for x := range g.cells {
		for y := range g.cells[x] {
			fn(x, y, g.cells[x][y])
		}
	}
}

// Rows renders the grid back into track rows, top row first.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]rune, g.width)
		for x := 0; x < g.width; x++ {
			row[x] = g.cells[x][y]
		}
		rows[g.height-y-1] = string(row)
	}
	return rows
}
