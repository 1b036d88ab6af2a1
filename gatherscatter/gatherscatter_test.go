package gatherscatter

import (
	"testing"

	"github.com/rocketbitz/parcomm/policy"
)

func TestCopyOverwrites(t *testing.T) {
	v := policy.Vector{1, 2, 3}
	c := Copy[policy.Vector]{Policy: policy.VectorPolicy{}}
	if got := c.Gather(v, 0, 0); got != 1 {
		t.Fatalf("Gather = %v, want 1", got)
	}
	c.Scatter(v, 42, 0, 0)
	if v[0] != 42 {
		t.Fatalf("Scatter did not overwrite: v[0] = %v", v[0])
	}
}

func TestAccumulateAdds(t *testing.T) {
	v := policy.Vector{10, 0, 0}
	a := Accumulate[policy.Vector]{Policy: policy.VectorPolicy{}}
	a.Scatter(v, 5, 0, 0)
	a.Scatter(v, 3, 0, 0)
	if v[0] != 18 {
		t.Fatalf("v[0] = %v, want 18", v[0])
	}
}

func TestMaxKeepsLarger(t *testing.T) {
	v := policy.Vector{4}
	m := Max[policy.Vector]{Policy: policy.VectorPolicy{}}
	m.Scatter(v, 2, 0, 0)
	if v[0] != 4 {
		t.Fatalf("Max overwrote with smaller value: v[0] = %v", v[0])
	}
	m.Scatter(v, 9, 0, 0)
	if v[0] != 9 {
		t.Fatalf("Max did not adopt larger value: v[0] = %v", v[0])
	}
}

func TestAccumulateOnBlockVector(t *testing.T) {
	bv := policy.NewBlockVector([]int{2})
	a := Accumulate[policy.BlockVector]{Policy: policy.BlockVectorPolicy{}}
	a.Scatter(bv, 1, 0, 1)
	a.Scatter(bv, 4, 0, 1)
	if bv.Block(0)[1] != 5 {
		t.Fatalf("block[1] = %v, want 5", bv.Block(0)[1])
	}
}
