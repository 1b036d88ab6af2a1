package engine

import (
	"github.com/rocketbitz/parcomm/gatherscatter"
	"github.com/rocketbitz/parcomm/policy"
)

// SolverCategory tags which parallel-information trait a solver was
// built with. It selects the engine, not the policy.
type SolverCategory int

const (
	// SolverSequential is a single-process solver: no transport calls
	// are ever legal, and Select returns the no-op Sequential
	// engine for it.
	SolverSequential SolverCategory = iota
	// SolverOverlapping is a parallel solver whose owned and shared
	// entries participate in the same transfer (BufferedEngine).
	SolverOverlapping
	// SolverNonOverlapping is a parallel solver that addresses its
	// scattered memory directly (DatatypeEngine).
	SolverNonOverlapping
)

// Engine is the trait Sequential, BufferedEngine, and the adapter Select
// wraps a DatatypeEngine in satisfy for a given container type V, letting
// solver code hold whichever one Select returned without a type switch.
type Engine[V any] interface {
	Forward(src, dst V, gs gatherscatter.GatherScatter[V]) error
	Backward(src, dst V, gs gatherscatter.GatherScatter[V]) error
	Free() error
}

// Sequential is the true no-op engine a single-process solver requires:
// it never touches a transport, forward and backward leave both
// containers exactly as GatherScatter's identity would, and GlobalSum
// returns its argument unchanged since there is nothing to reduce over.
type Sequential[V any] struct{}

func (Sequential[V]) Forward(src, dst V, gs gatherscatter.GatherScatter[V]) error  { return nil }
func (Sequential[V]) Backward(src, dst V, gs gatherscatter.GatherScatter[V]) error { return nil }
func (Sequential[V]) Free() error                                                 { return nil }

// GlobalSum is the sequential analogue of an all-reduce sum: with one
// process there is nothing to reduce over, so it is the identity.
func GlobalSum(x float64) float64 { return x }

// Select dispatches on category to return the engine a solver with that
// trait should use. Overlapping and non-overlapping solvers both get a
// fresh, unbuilt engine of the requested kind; the caller still calls
// Build (or BuildVariable) before the first transfer. A non-overlapping
// solver whose policy is not ByteAddressable gets Sequential instead.
func Select[V any](category SolverCategory, pol policy.Policy[V, float64], cfg Config) Engine[V] {
	switch category {
	case SolverSequential:
		return Sequential[V]{}
	case SolverNonOverlapping:
		bp, ok := any(pol).(BytePolicy[V])
		if !ok {
			return Sequential[V]{}
		}
		return &selectedDatatypeEngine[V]{inner: NewDatatypeEngine[V](bp, cfg)}
	default:
		return NewBufferedEngine[V](pol, cfg)
	}
}

// selectedDatatypeEngine adapts DatatypeEngine's build-time-parameterized
// shape (Build takes filters and witness containers, Forward/Backward
// take none) to the Engine[V] trait's per-call (src, dst, gs) shape, so
// Select can return a single uniform interface regardless of category.
// Build must still be called once, directly on Inner(), before the
// first Forward/Backward.
type selectedDatatypeEngine[V any] struct {
	inner *DatatypeEngine[V]
}

// Inner exposes the underlying DatatypeEngine for its Build call, which
// needs filters and witness containers Engine[V] has no room for.
func (e *selectedDatatypeEngine[V]) Inner() *DatatypeEngine[V] { return e.inner }

func (e *selectedDatatypeEngine[V]) Forward(src, dst V, gs gatherscatter.GatherScatter[V]) error {
	return e.inner.Forward()
}

func (e *selectedDatatypeEngine[V]) Backward(src, dst V, gs gatherscatter.GatherScatter[V]) error {
	return e.inner.Backward()
}

func (e *selectedDatatypeEngine[V]) Free() error { return e.inner.Free() }

var (
	_ Engine[policy.Vector] = Sequential[policy.Vector]{}
	_ Engine[policy.Vector] = (*BufferedEngine[policy.Vector])(nil)
	_ Engine[policy.Vector] = (*selectedDatatypeEngine[policy.Vector])(nil)
)
