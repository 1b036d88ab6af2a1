// Package policy describes how to address primitive values inside a
// container by local index: where entry i's values live, and how many
// primitives entry i occupies. It does not move data itself, that is
// the GatherScatter callback's job; it only answers "where" and "how
// many".
package policy

import "unsafe"

// SizeKind tags whether a container's per-entry primitive count is
// fixed at one or varies by index.
type SizeKind int

const (
	// FixedOne containers always have exactly one primitive per entry.
	FixedOne SizeKind = iota
	// Variable containers have a per-index primitive count (e.g. block
	// vectors with a dynamic block size at each index).
	Variable
)

// Policy specializes value addressing for a container type V holding a
// primitive type P. addressOf's byte-pointer contract from the
// specification is expressed here as a typed slice view: At returns the
// live backing slice for entry i, so callers can read or write in place
// without pointer arithmetic.
type Policy[V any, P any] interface {
	// Kind reports whether this policy is FixedOne or Variable.
	Kind() SizeKind
	// SizeAt returns the number of primitives entry i occupies. Always 1
	// under FixedOne.
	SizeAt(v V, i int) int
	// At returns the backing slice for entry i's primitives, of length
	// SizeAt(v, i). Mutating the returned slice mutates v.
	At(v V, i int) []P
}

// ByteAddressable is implemented by policies whose container keeps its
// primitives in one contiguous backing array, so a DatatypeEngine can
// describe entries as (length, byte-displacement) pairs against a
// single base address instead of copying through a staging buffer.
// Containers that store each entry in an independent allocation (e.g. a
// slice of slices) cannot satisfy this contract; BufferedEngine remains
// available to them regardless.
type ByteAddressable[V any] interface {
	// BaseBytes returns a byte-level view of the container's entire
	// backing array, suitable for use as a derived type's base address.
	// It aliases the container's memory: writes through it are visible
	// to readers of the original container and vice versa.
	BaseBytes(v V) []byte
	// ByteDisplacement returns entry i's offset, in bytes, from entry 0.
	ByteDisplacement(v V, i int) int
}

// Vector is a dense []float64 container addressed one primitive per
// entry, the common case for a plain distributed vector.
type Vector []float64

// VectorPolicy is the FixedOne Policy for Vector.
type VectorPolicy struct{}

var (
	_ Policy[Vector, float64]  = VectorPolicy{}
	_ ByteAddressable[Vector]  = VectorPolicy{}
)

func (VectorPolicy) Kind() SizeKind { return FixedOne }

func (VectorPolicy) SizeAt(v Vector, i int) int { return 1 }

func (VectorPolicy) At(v Vector, i int) []float64 { return v[i : i+1] }

func (VectorPolicy) BaseBytes(v Vector) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*8)
}

func (VectorPolicy) ByteDisplacement(v Vector, i int) int { return i * 8 }

// BlockVector is a block-structured container backed by one contiguous
// array: block i occupies Data[Offsets[i] : Offsets[i]+Sizes[i]]. Real
// solver stacks lay block vectors out this way so the whole container
// can still be addressed as a single base pointer plus a displacement
// table, which is what lets DatatypeEngine describe it without staging.
type BlockVector struct {
	Data    []float64
	Offsets []int
	Sizes   []int
}

// NewBlockVector builds a BlockVector from per-index block sizes,
// computing contiguous offsets and a zeroed backing array.
func NewBlockVector(sizes []int) BlockVector {
	offsets := make([]int, len(sizes))
	total := 0
	for i, s := range sizes {
		offsets[i] = total
		total += s
	}
	return BlockVector{Data: make([]float64, total), Offsets: offsets, Sizes: append([]int(nil), sizes...)}
}

// Block returns the backing slice for entry i.
func (b BlockVector) Block(i int) []float64 {
	return b.Data[b.Offsets[i] : b.Offsets[i]+b.Sizes[i]]
}

// BlockVectorPolicy is the Variable Policy for BlockVector.
type BlockVectorPolicy struct{}

var (
	_ Policy[BlockVector, float64] = BlockVectorPolicy{}
	_ ByteAddressable[BlockVector] = BlockVectorPolicy{}
)

func (BlockVectorPolicy) Kind() SizeKind { return Variable }

func (BlockVectorPolicy) SizeAt(v BlockVector, i int) int { return v.Sizes[i] }

func (BlockVectorPolicy) At(v BlockVector, i int) []float64 { return v.Block(i) }

func (BlockVectorPolicy) BaseBytes(v BlockVector) []byte {
	if len(v.Data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v.Data[0])), len(v.Data)*8)
}

func (BlockVectorPolicy) ByteDisplacement(v BlockVector, i int) int { return v.Offsets[i] * 8 }
