package planning

import (
	"time"

	"costfield/grid_world"
	vi "costfield/value_iteration"
)

// Report is the printable form of a Plan. Value and policy layers are keyed
// by orientation and laid out like the track: top row first.
type Report struct {
	Track   []string               `json:"track" yaml:"track"`
	Costs   grid_world.TurnCosts   `json:"costs" yaml:"costs"`
	Summary vi.Summary             `json:"summary" yaml:"summary"`
	Elapsed string                 `json:"elapsed" yaml:"elapsed"`
	Values  map[string][][]vi.Cost `json:"values" yaml:"values"`
	Policy  map[string][][]string  `json:"policy" yaml:"policy"`
}

// NewReport renders plan. An empty policy entry marks a state with no action:
// a goal, a wall, or a state that cannot reach a goal.
func NewReport(plan *Plan) *Report {
	width, height := plan.Grid.Dimensions()
	report := &Report{
		Track:   plan.Grid.Rows(),
		Costs:   plan.Costs,
		Summary: plan.Result.Summary(),
		Elapsed: plan.Result.Elapsed.Round(time.Microsecond).String(),
		Values:  make(map[string][][]vi.Cost, vi.NumOrientations),
		Policy:  make(map[string][][]string, vi.NumOrientations),
	}

	for _, o := range vi.Orientations {
		values := make([][]vi.Cost, height)
		actions := make([][]string, height)
		for row := 0; row < height; row++ {
			y := height - row - 1
			values[row] = make([]vi.Cost, width)
			actions[row] = make([]string, width)
			for x := 0; x < width; x++ {
				values[row][x] = plan.Result.Values.At(o, x, y)
				if action, ok := plan.Result.Policy.ActionAt(o, x, y); ok {
					actions[row][x] = action.String()
				}
			}
		}
		report.Values[o.String()] = values
		report.Policy[o.String()] = actions
	}
	return report
}
