package local

import (
	"sync"

	"github.com/rocketbitz/parcomm/transport"
)

// barrier implements a reusable, generation-counted rendezvous used to
// realize AllReduceMinBool: every rank contributes its local boolean and
// blocks until all ranks have contributed, then all see the same
// logical-AND result.
type barrier struct {
	size int

	mu         sync.Mutex
	cond       *sync.Cond
	generation int
	arrived    int
	acc        bool
	lastResult bool
}

func newBarrier(size int) *barrier {
	b := &barrier{size: size, acc: true}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) reduceAnd(_ transport.PeerRank, local bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.acc = b.acc && local
	b.arrived++

	if b.arrived == b.size {
		b.lastResult = b.acc
		b.acc = true
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return b.lastResult
	}

	for b.generation == gen {
		b.cond.Wait()
	}
	return b.lastResult
}
