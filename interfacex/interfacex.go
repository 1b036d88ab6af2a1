// Package interfacex provides a minimal, immutable implementation of the
// Interface contract: a per-peer pair of local-index lists describing
// which entries of a container flow outbound and which flow inbound.
// Building the underlying remote-index map is out of scope for parcomm;
// this package only freezes an already-computed map into the shape the
// engines require.
package interfacex

import "github.com/rocketbitz/parcomm/transport"

// InterfaceInformation is an ordered, possibly-repeating sequence of
// local indices. Order is semantically significant: the k-th sent value
// at the sender must correspond to the k-th received value at the
// receiver.
type InterfaceInformation []int

// Size returns the number of entries in the list.
func (l InterfaceInformation) Size() int { return len(l) }

// At returns the local index at position i.
func (l InterfaceInformation) At(i int) int { return l[i] }

// PeerLists holds the outgoing and incoming index lists for one peer.
type PeerLists struct {
	Outgoing InterfaceInformation
	Incoming InterfaceInformation
}

// Interface is an immutable peer -> (outgoing, incoming) map, plus the
// peer-group handle identifying the communication session those peers
// belong to. Its lifetime is expected to exceed any engine built on it;
// engines hold a non-owning reference.
type Interface struct {
	group transport.PeerGroup
	peers map[transport.PeerRank]PeerLists
	order []transport.PeerRank
}

// New freezes peers into an Interface bound to group. The iteration
// order of Peers() is whatever order Go's range over the peers map
// yields, which is unspecified, so callers who care about a specific peer-iteration order (both ends of
// a session must agree, per the engine's ordering rules) should pass
// ranks explicitly via NewOrdered instead.
func New(group transport.PeerGroup, peers map[transport.PeerRank]PeerLists) *Interface {
	order := make([]transport.PeerRank, 0, len(peers))
	for p := range peers {
		order = append(order, p)
	}
	return &Interface{group: group, peers: clone(peers), order: order}
}

// NewOrdered freezes peers into an Interface bound to group, iterating
// peers in exactly the given rank order. Both ends of a session must
// construct their Interface with the same relative order for their
// shared peers, since MessageLayout offsets are assigned in
// peer-iteration order.
func NewOrdered(group transport.PeerGroup, order []transport.PeerRank, peers map[transport.PeerRank]PeerLists) *Interface {
	return &Interface{group: group, peers: clone(peers), order: append([]transport.PeerRank(nil), order...)}
}

func clone(peers map[transport.PeerRank]PeerLists) map[transport.PeerRank]PeerLists {
	out := make(map[transport.PeerRank]PeerLists, len(peers))
	for k, v := range peers {
		out[k] = PeerLists{
			Outgoing: append(InterfaceInformation(nil), v.Outgoing...),
			Incoming: append(InterfaceInformation(nil), v.Incoming...),
		}
	}
	return out
}

// Group returns the peer-group handle this Interface was built against.
func (in *Interface) Group() transport.PeerGroup { return in.group }

// Peers returns the peer ranks in iteration order. Engines must gather
// and post operations in exactly this order so that offsets computed at
// build time remain valid.
func (in *Interface) Peers() []transport.PeerRank {
	return append([]transport.PeerRank(nil), in.order...)
}

// Lists returns the outgoing/incoming lists for peer. The second return
// value is false if peer is not part of this Interface.
func (in *Interface) Lists(peer transport.PeerRank) (PeerLists, bool) {
	l, ok := in.peers[peer]
	return l, ok
}
