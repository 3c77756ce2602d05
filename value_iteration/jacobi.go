package value_iteration

import (
	"context"
	"sync/atomic"

	"costfield/atomic_float"

	"golang.org/x/sync/errgroup"
)

// stripe is a half-open range of columns owned by one Jacobi worker.
type stripe struct {
	from, to int
}

// makeStripes splits width columns into at most workers contiguous stripes
// whose sizes differ by at most one.
func makeStripes(width, workers int) (stripes []stripe) {
	if workers > width {
		workers = width
	}
	if workers < 1 {
		workers = 1
	}
	size, extra := width/workers, width%workers
	from := 0
	for i := 0; i < workers; i++ {
		to := from + size
		if i < extra {
			to++
		}
		stripes = append(stripes, stripe{from: from, to: to})
		from = to
	}
	return
}

/*
sweepJacobi is one double-buffered pass. Every worker copies its stripe of
the previous snapshot (cur) into next, then relaxes its cells reading only
cur and writing only its own columns of next. Workers never share a
writable column, so no locking is needed; the counters are the only
shared state and are atomic.

A failed worker cancels its peers through the errgroup context. A parent
cancellation during the pass also abandons it: next is then incomplete, so
the error must be returned rather than the (possibly zero) update count.
*/
func (s *Solver[A]) sweepJacobi(
	ctx context.Context,
	cur *ValueField,
	curPolicy *PolicyField[A],
	next *ValueField,
	nextPolicy *PolicyField[A],
) (SweepStats, error) {
	var updates, reached atomic.Int64
	improvement := atomic_float.NewAtomicFloat64(0)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, st := range s.stripes {
		st := st
		group.Go(func() error {
			next.copyColumns(cur, st.from, st.to)
			nextPolicy.copyColumns(curPolicy, st.from, st.to)

			for x := st.from; x < st.to; x++ {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				for y := 0; y < s.height; y++ {
					if !s.relaxable(x, y) {
						continue
					}
					for _, o := range Orientations {
						current := cur.At(o, x, y)
						best, move, improved, err := s.relax(o, x, y, current, cur)
						if err != nil {
							return err
						}
						if !improved {
							continue
						}
						next.set(o, x, y, best)
						nextPolicy.set(o, x, y, move)
						updates.Add(1)
						if old, ok := current.Amount(); ok {
							now, _ := best.Amount()
							improvement.Add(old - now)
						} else {
							reached.Add(1)
						}
					}
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return SweepStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return SweepStats{}, err
	}

	return SweepStats{
		Updates:     int(updates.Load()),
		Reached:     int(reached.Load()),
		Improvement: improvement.AtomicRead(),
	}, nil
}
