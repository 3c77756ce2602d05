package value_iteration

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the root of every fatal configuration fault: a
// malformed grid, a negative action cost, an out-of-bounds move, or a solve
// that blew through its sweep bound. Check with errors.Is.
var ErrConfiguration = errors.New("configuration error")

type ErrorKind string

const (
	GridError       ErrorKind = "grid"
	CostError       ErrorKind = "cost"
	MoveError       ErrorKind = "move"
	SweepBoundError ErrorKind = "sweep-bound"
	SolverError     ErrorKind = "solver"
)

// ConfigurationError describes why a solve was refused or aborted.
type ConfigurationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Kind, e.Detail)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError is exported so collaborators that validate their
// own inputs (grid constructors, config loaders) report faults the same way.
func NewConfigurationError(kind ErrorKind, format string, args ...interface{}) error {
	return &ConfigurationError{
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of a wrapped ConfigurationError, or "" if err is not one.
func KindOf(err error) ErrorKind {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Kind
	}
	return ""
}

// Builder errors, returned by Build() when a collaborator was never supplied.
var (
	ErrNoGrid  = NewConfigurationError(SolverError, "no grid specified: WithGrid must be called")
	ErrNoMoves = NewConfigurationError(SolverError, "no move generator specified: WithMoves must be called")
	ErrNoCost  = NewConfigurationError(SolverError, "no cost model specified: WithCost must be called")
	ErrNoGoal  = NewConfigurationError(SolverError, "no goal predicate specified: WithGoal must be called")
)
