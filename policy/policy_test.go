package policy

import "testing"

func TestVectorPolicyAliasesBackingArray(t *testing.T) {
	v := Vector{1, 2, 3}
	slot := VectorPolicy{}.At(v, 1)
	slot[0] = 42
	if v[1] != 42 {
		t.Fatalf("At did not alias backing array: got %v", v)
	}
}

func TestVectorPolicyByteDisplacement(t *testing.T) {
	v := Vector{1, 2, 3}
	pol := VectorPolicy{}
	base := pol.BaseBytes(v)
	if len(base) != len(v)*8 {
		t.Fatalf("BaseBytes length = %d, want %d", len(base), len(v)*8)
	}
	for i := range v {
		if got, want := pol.ByteDisplacement(v, i), i*8; got != want {
			t.Errorf("ByteDisplacement(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestVectorPolicyEmptyBaseBytes(t *testing.T) {
	if got := (VectorPolicy{}).BaseBytes(Vector{}); got != nil {
		t.Fatalf("BaseBytes(empty) = %v, want nil", got)
	}
}

func TestBlockVectorOffsetsAndSizes(t *testing.T) {
	bv := NewBlockVector([]int{2, 0, 3})
	if len(bv.Data) != 5 {
		t.Fatalf("len(Data) = %d, want 5", len(bv.Data))
	}
	wantOffsets := []int{0, 2, 2}
	for i, want := range wantOffsets {
		if bv.Offsets[i] != want {
			t.Errorf("Offsets[%d] = %d, want %d", i, bv.Offsets[i], want)
		}
	}
	block := bv.Block(2)
	if len(block) != 3 {
		t.Fatalf("Block(2) length = %d, want 3", len(block))
	}
	block[0] = 9
	if bv.Data[2] != 9 {
		t.Fatalf("Block did not alias Data: got %v", bv.Data)
	}
}

func TestBlockVectorPolicyByteAddressable(t *testing.T) {
	bv := NewBlockVector([]int{1, 2})
	pol := BlockVectorPolicy{}
	if pol.SizeAt(bv, 1) != 2 {
		t.Fatalf("SizeAt(1) = %d, want 2", pol.SizeAt(bv, 1))
	}
	if pol.ByteDisplacement(bv, 1) != 8 {
		t.Fatalf("ByteDisplacement(1) = %d, want 8", pol.ByteDisplacement(bv, 1))
	}
	base := pol.BaseBytes(bv)
	if len(base) != len(bv.Data)*8 {
		t.Fatalf("BaseBytes length = %d, want %d", len(base), len(bv.Data)*8)
	}
}

func TestBlockVectorPolicyKind(t *testing.T) {
	if (BlockVectorPolicy{}).Kind() != Variable {
		t.Fatal("BlockVectorPolicy.Kind() != Variable")
	}
	if (VectorPolicy{}).Kind() != FixedOne {
		t.Fatal("VectorPolicy.Kind() != FixedOne")
	}
}
