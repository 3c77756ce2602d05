package grid_world

import vi "costfield/value_iteration"

// TurnCosts prices actions with the turn penalty folded in. For compass
// steps, Turn is charged once per quarter turn between From and Facing, so a
// U-turn step costs Step + 2*Turn.
type TurnCosts struct {
	Forward float64 `json:"forward" yaml:"forward"`
	Turn    float64 `json:"turn" yaml:"turn"`
	Reverse float64 `json:"reverse" yaml:"reverse"`
	Step    float64 `json:"step" yaml:"step"`
}

// UniformCosts charges one per move and nothing for turning.
var UniformCosts = TurnCosts{Forward: 1, Turn: 0, Reverse: 1, Step: 1}

func (tc TurnCosts) Cost(a Action) float64 {
	switch a.Kind {
	case Forward:
		return tc.Forward
	case TurnLeft, TurnRight:
		return tc.Turn
	case Reverse:
		return tc.Reverse
	case Step:
		return tc.Step + tc.Turn*float64(QuarterTurns(a.From, a.Facing))
	}
	// Negative, so the solver fails fast on an action kind it cannot price.
	return -1
}

// CostModel adapts tc to the solver's CostModel type.
func (tc TurnCosts) CostModel() vi.CostModel[Action] {
	return tc.Cost
}

// QuarterTurns is the minimum number of quarter turns between two headings: 0, 1 or 2.
func QuarterTurns(from, to vi.Orientation) int {
	d := int(to-from+vi.NumOrientations) % vi.NumOrientations
	if d == 3 {
		return 1
	}
	return d
}
