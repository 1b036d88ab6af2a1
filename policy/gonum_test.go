package policy

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestGonumVectorPolicyReadsThroughAtVec(t *testing.T) {
	vec := mat.NewVecDense(3, []float64{1, 2, 3})
	v := GonumVector{Vec: vec}
	pol := GonumVectorPolicy{}

	if pol.SizeAt(v, 0) != 1 {
		t.Fatalf("SizeAt = %d, want 1", pol.SizeAt(v, 0))
	}
	if got := pol.At(v, 1)[0]; got != 2 {
		t.Fatalf("At(v, 1)[0] = %v, want 2", got)
	}
}

func TestGonumVectorPolicyAtDoesNotAlias(t *testing.T) {
	vec := mat.NewVecDense(2, []float64{5, 6})
	v := GonumVector{Vec: vec}
	slot := GonumVectorPolicy{}.At(v, 0)
	slot[0] = 99
	if vec.AtVec(0) != 5 {
		t.Fatalf("mutation through At leaked into VecDense: AtVec(0) = %v", vec.AtVec(0))
	}
}
