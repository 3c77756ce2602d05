package server

import (
	"sync"

	"costfield/planning"
	vi "costfield/value_iteration"
)

// Solve states reported by Status.
const (
	Solving   = "solving"
	Converged = "converged"
	Failed    = "failed"
)

// Status is the idempotent progress message: the latest one fully describes
// where a solve is, so intervening ones can be dropped.
type Status struct {
	Version int           `json:"version"`
	State   string        `json:"state"`
	Sweep   vi.SweepStats `json:"sweep"`
	Summary *vi.Summary   `json:"summary,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Store holds the progress of one solve and, once it ends, its plan or error.
// Readers never see a partially written result.
type Store struct {
	mu      sync.RWMutex
	version int
	latest  vi.SweepStats
	plan    *planning.Plan
	summary *vi.Summary
	err     error
}

func NewStore() *Store {
	return &Store{}
}

// Observe records the stats of a completed sweep.
func (store *Store) Observe(stats vi.SweepStats) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.plan != nil || store.err != nil {
		return
	}
	store.latest = stats
	store.version++
}

// Complete records the outcome of the solve. Only the first call counts.
func (store *Store) Complete(plan *planning.Plan, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.plan != nil || store.err != nil {
		return
	}
	store.plan = plan
	store.err = err
	if plan != nil && err == nil {
		summary := plan.Result.Summary()
		store.summary = &summary
	}
	store.version++
}

// Plan returns the converged plan, or false while solving or after a failure.
func (store *Store) Plan() (*planning.Plan, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.plan, store.plan != nil
}

// Status reports the latest sweep and, once converged, the summary computed
// when the plan was stored.
func (store *Store) Status() Status {
	store.mu.RLock()
	defer store.mu.RUnlock()

	status := Status{
		Version: store.version,
		State:   Solving,
		Sweep:   store.latest,
	}
	switch {
	case store.err != nil:
		status.State = Failed
		status.Error = store.err.Error()
	case store.plan != nil:
		status.State = Converged
		status.Summary = store.summary
	}
	return status
}

// Done reports whether the solve has ended either way.
func (store *Store) Done() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.plan != nil || store.err != nil
}
