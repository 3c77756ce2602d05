package value_iteration

// ValueField holds a cost-to-go per (orientation, x, y). Each orientation
// layer is its own [x][y] allocation, so layers never alias.
// Fields handed out by the Solver are read-only.
type ValueField struct {
	layers        [NumOrientations][][]Cost
	width, height int
}

func newValueField(width, height int) *ValueField {
	vf := &ValueField{width: width, height: height}
	for o := range vf.layers {
		vf.layers[o] = make([][]Cost, width)
		for x := range vf.layers[o] {
			vf.layers[o][x] = make([]Cost, height)
		}
	}
	return vf
}

func (vf *ValueField) Dimensions() (int, int) {
	return vf.width, vf.height
}

// At returns the cost-to-go of a state. Indices out of range panic.
func (vf *ValueField) At(o Orientation, x, y int) Cost {
	return vf.layers[o][x][y]
}

func (vf *ValueField) set(o Orientation, x, y int, c Cost) {
	vf.layers[o][x][y] = c
}

// copyColumns copies columns [fromX, toX) of src into vf.
func (vf *ValueField) copyColumns(src *ValueField, fromX, toX int) {
	for o := range vf.layers {
		for x := fromX; x < toX; x++ {
			copy(vf.layers[o][x], src.layers[o][x])
		}
	}
}

func (vf *ValueField) clone() *ValueField {
	cp := newValueField(vf.width, vf.height)
	cp.copyColumns(vf, 0, vf.width)
	return cp
}

// Equal reports whether two fields have the same shape and identical costs.
func (vf *ValueField) Equal(other *ValueField) bool {
	if vf.width != other.width || vf.height != other.height {
		return false
	}
	for o := range vf.layers {
		for x := range vf.layers[o] {
			for y := range vf.layers[o][x] {
				if vf.layers[o][x][y] != other.layers[o][x][y] {
					return false
				}
			}
		}
	}
	return true
}

// Layer returns a copy of one orientation layer as [x][y] costs.
func (vf *ValueField) Layer(o Orientation) [][]Cost {
	layer := make([][]Cost, vf.width)
	for x := range layer {
		layer[x] = append([]Cost(nil), vf.layers[o][x]...)
	}
	return layer
}

// Visit calls fn for every state in orientation, x, y order.
func (vf *ValueField) Visit(fn func(o Orientation, x, y int, c Cost)) {
	for _, o := range Orientations {
		for x := 0; x < vf.width; x++ {
			for y := 0; y < vf.height; y++ {
				fn(o, x, y, vf.layers[o][x][y])
			}
		}
	}
}

type policyEntry[A any] struct {
	move Move[A]
	set  bool
}

// PolicyField holds the move chosen for each (orientation, x, y). An entry
// exists exactly when the matching value is finite and the cell is not a goal.
// With zero-cost moves a non-goal state may hold zero and still have an entry.
type PolicyField[A any] struct {
	layers        [NumOrientations][][]policyEntry[A]
	width, height int
}

func newPolicyField[A any](width, height int) *PolicyField[A] {
	pf := &PolicyField[A]{width: width, height: height}
	for o := range pf.layers {
		pf.layers[o] = make([][]policyEntry[A], width)
		for x := range pf.layers[o] {
			pf.layers[o][x] = make([]policyEntry[A], height)
		}
	}
	return pf
}

func (pf *PolicyField[A]) Dimensions() (int, int) {
	return pf.width, pf.height
}

// ActionAt returns the chosen action, or false for goal and unreachable states.
func (pf *PolicyField[A]) ActionAt(o Orientation, x, y int) (action A, ok bool) {
	entry := pf.layers[o][x][y]
	return entry.move.Action, entry.set
}

// MoveAt is ActionAt plus the state the action leads to.
func (pf *PolicyField[A]) MoveAt(o Orientation, x, y int) (Move[A], bool) {
	entry := pf.layers[o][x][y]
	return entry.move, entry.set
}

func (pf *PolicyField[A]) set(o Orientation, x, y int, mv Move[A]) {
	pf.layers[o][x][y] = policyEntry[A]{move: mv, set: true}
}

func (pf *PolicyField[A]) copyColumns(src *PolicyField[A], fromX, toX int) {
	for o := range pf.layers {
		for x := fromX; x < toX; x++ {
			copy(pf.layers[o][x], src.layers[o][x])
		}
	}
}

func (pf *PolicyField[A]) clone() *PolicyField[A] {
	cp := newPolicyField[A](pf.width, pf.height)
	cp.copyColumns(pf, 0, pf.width)
	return cp
}
