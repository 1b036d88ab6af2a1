package policy

import "gonum.org/v1/gonum/mat"

// GonumVector adapts a *mat.VecDense to the Vector shape expected by a
// FixedOne policy, for callers already working in gonum's numeric types
// (as is common across the wider iterative-solver/AMG stack this engine
// serves) rather than plain slices.
type GonumVector struct {
	Vec *mat.VecDense
}

// GonumVectorPolicy is the FixedOne Policy for GonumVector.
type GonumVectorPolicy struct{}

var _ Policy[GonumVector, float64] = GonumVectorPolicy{}

func (GonumVectorPolicy) Kind() SizeKind { return FixedOne }

func (GonumVectorPolicy) SizeAt(v GonumVector, i int) int { return 1 }

// At returns a length-1 slice holding a copy of entry i; writes to the
// returned slice do not reach v. mat.VecDense does not expose a mutable
// slice view directly, so writes go through SetVec; callers that need
// in-place mutation through the returned slice should use Vector instead. At is provided so GonumVector satisfies Policy for
// read-mostly gather paths.
func (GonumVectorPolicy) At(v GonumVector, i int) []float64 {
	return []float64{v.Vec.AtVec(i)}
}
