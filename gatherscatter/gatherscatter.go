// Package gatherscatter provides the caller-supplied read/write pair an
// engine uses to move values between a container and its staging
// buffers. Implementations must be pure with respect to indices other
// than the one they are given.
package gatherscatter

import "github.com/rocketbitz/parcomm/policy"

// GatherScatter reads and writes primitive values in a container V by
// (index, subindex). Subindex j is always 0 for FixedOne containers.
type GatherScatter[V any] interface {
	// Gather returns the current value at (i, j).
	Gather(v V, i, j int) float64
	// Scatter combines an incoming value into (i, j). "Combines" rather
	// than "overwrites" because implementations may accumulate instead
	// of copying; see Accumulate and Max below.
	Scatter(v V, val float64, i, j int)
}

// Copy is the default GatherScatter: it overwrites the destination with
// the incoming value, and reads the destination verbatim on gather. It
// is generic over any container whose Policy exposes a mutable slice
// view via At.
type Copy[V any] struct {
	Policy policy.Policy[V, float64]
}

var _ GatherScatter[policy.Vector] = Copy[policy.Vector]{Policy: policy.VectorPolicy{}}

func (c Copy[V]) Gather(v V, i, j int) float64 {
	return c.Policy.At(v, i)[j]
}

func (c Copy[V]) Scatter(v V, val float64, i, j int) {
	c.Policy.At(v, i)[j] = val
}

// Accumulate adds the incoming value to the destination instead of
// overwriting it, matching the accumulating-backward scenario where a
// copy-owner's contributions from every peer must sum into one owner
// value.
type Accumulate[V any] struct {
	Policy policy.Policy[V, float64]
}

func (a Accumulate[V]) Gather(v V, i, j int) float64 {
	return a.Policy.At(v, i)[j]
}

func (a Accumulate[V]) Scatter(v V, val float64, i, j int) {
	slot := a.Policy.At(v, i)
	slot[j] += val
}

// Max keeps the larger of the destination's current value and the
// incoming one, useful for reducing an overlapping quantity like a
// per-index residual bound across owning and copy processes.
type Max[V any] struct {
	Policy policy.Policy[V, float64]
}

func (m Max[V]) Gather(v V, i, j int) float64 {
	return m.Policy.At(v, i)[j]
}

func (m Max[V]) Scatter(v V, val float64, i, j int) {
	slot := m.Policy.At(v, i)
	if val > slot[j] {
		slot[j] = val
	}
}
