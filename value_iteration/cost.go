package value_iteration

import (
	"encoding/json"
	"math"
	"strconv"
)

// Cost is a cost-to-go estimate: either a finite, non-negative amount or
// Unreachable. The zero value is Unreachable, so freshly allocated fields
// start out unknown without an explicit fill.
type Cost struct {
	amount    float64
	reachable bool
}

// Finite returns a reachable cost of the given amount.
func Finite(amount float64) Cost {
	return Cost{amount: amount, reachable: true}
}

// Unreachable returns the sentinel for states with no known path to a goal.
func Unreachable() Cost {
	return Cost{}
}

func (c Cost) IsFinite() bool {
	return c.reachable
}

// Amount returns the finite amount and true, or zero and false when unreachable.
func (c Cost) Amount() (float64, bool) {
	return c.amount, c.reachable
}

// Plus adds a step cost. Unreachable absorbs any step, and a sum that
// overflows to +Inf (or an infinite step) saturates to Unreachable.
func (c Cost) Plus(step float64) Cost {
	if !c.reachable {
		return c
	}
	sum := c.amount + step
	if math.IsInf(sum, 1) {
		return Unreachable()
	}
	return Finite(sum)
}

// Less orders costs with Unreachable above every finite amount.
// Unreachable is never less than anything, including itself.
func (c Cost) Less(other Cost) bool {
	switch {
	case !c.reachable:
		return false
	case !other.reachable:
		return true
	default:
		return c.amount < other.amount
	}
}

func (c Cost) String() string {
	if !c.reachable {
		return "inf"
	}
	return strconv.FormatFloat(c.amount, 'g', -1, 64)
}

// MarshalJSON encodes unreachable costs as null.
func (c Cost) MarshalJSON() ([]byte, error) {
	if !c.reachable {
		return []byte("null"), nil
	}
	return json.Marshal(c.amount)
}

// MarshalYAML encodes unreachable costs as null.
func (c Cost) MarshalYAML() (interface{}, error) {
	if !c.reachable {
		return nil, nil
	}
	return c.amount, nil
}
