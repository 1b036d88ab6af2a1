package engine

import "github.com/rocketbitz/parcomm/transport"

const primitiveSize = 8 // float64, this engine's Primitive type

// slice is a (byteOffset, byteLength) window into a staging area.
type slice struct {
	offset int
	length int
}

func (s slice) window(buf []byte) []byte { return buf[s.offset : s.offset+s.length] }

// messageLayout is the per-peer pair of slices built at Build time:
// out indexes into the outbound staging area, in into the inbound one.
type messageLayout struct {
	out slice
	in  slice
}

// buildLayout walks peers in interface order, accumulating offsets, and
// returns the per-peer layout plus the two staging areas' total sizes.
func buildLayout(peers []transport.PeerRank, sizeAt func(transport.PeerRank) (outLen, inLen int)) (map[transport.PeerRank]messageLayout, int, int) {
	layout := make(map[transport.PeerRank]messageLayout, len(peers))
	outOff, inOff := 0, 0
	for _, p := range peers {
		outLen, inLen := sizeAt(p)
		layout[p] = messageLayout{
			out: slice{offset: outOff, length: outLen},
			in:  slice{offset: inOff, length: inLen},
		}
		outOff += outLen
		inOff += inLen
	}
	return layout, outOff, inOff
}
