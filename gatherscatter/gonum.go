package gatherscatter

import "github.com/rocketbitz/parcomm/policy"

// GonumCopy is the Copy strategy for policy.GonumVector. mat.VecDense
// does not expose a mutable slice view, so this reads and writes
// through AtVec/SetVec directly instead of going through Policy.At.
type GonumCopy struct{}

var _ GatherScatter[policy.GonumVector] = GonumCopy{}

func (GonumCopy) Gather(v policy.GonumVector, i, j int) float64 {
	return v.Vec.AtVec(i)
}

func (GonumCopy) Scatter(v policy.GonumVector, val float64, i, j int) {
	v.Vec.SetVec(i, val)
}
