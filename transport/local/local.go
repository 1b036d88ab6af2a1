// Package local implements an in-process transport.Transport for a fixed
// number of goroutine-simulated processes exchanging byte messages over
// Go channels. It is the reference backend used by parcomm's own tests;
// a production deployment would supply a Transport backed
// by a real fabric or an MPI binding instead.
package local

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rocketbitz/parcomm/transport"
)

// Group is a fixed-size peer group shared by every Endpoint created from
// it. It owns the mailboxes ranks rendezvous through.
type Group struct {
	size int

	mu       sync.Mutex
	mailbox  map[mailboxKey]chan []byte
	barrier  *barrier
}

type mailboxKey struct {
	from, to transport.PeerRank
	tag      transport.Tag
}

// NewGroup creates a Group of the given size. Call Endpoint(rank) once
// per simulated process to obtain that process's Transport.
func NewGroup(size int) *Group {
	if size < 1 {
		size = 1
	}
	return &Group{
		size:    size,
		mailbox: make(map[mailboxKey]chan []byte),
		barrier: newBarrier(size),
	}
}

func (g *Group) mailboxFor(from, to transport.PeerRank, tag transport.Tag) chan []byte {
	key := mailboxKey{from: from, to: to, tag: tag}
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.mailbox[key]
	if !ok {
		ch = make(chan []byte)
		g.mailbox[key] = ch
	}
	return ch
}

// Endpoint returns the Transport for the given rank within the group.
func (g *Group) Endpoint(rank transport.PeerRank) *Endpoint {
	return &Endpoint{group: g, rank: rank}
}

// peerGroup adapts Group+rank to transport.PeerGroup.
type peerGroup struct {
	rank transport.PeerRank
	size int
}

func (p peerGroup) Rank() transport.PeerRank { return p.rank }
func (p peerGroup) Size() int                { return p.size }

// Endpoint is one simulated process's view of a Group; it implements
// transport.Transport.
type Endpoint struct {
	group *Group
	rank  transport.PeerRank
}

var _ transport.Transport = (*Endpoint)(nil)

func (e *Endpoint) PeerGroup() transport.PeerGroup {
	return peerGroup{rank: e.rank, size: e.group.size}
}

func (e *Endpoint) checkPeer(peer transport.PeerRank) error {
	if peer < 0 || int(peer) >= e.group.size {
		return transport.InvalidPeerError{Peer: peer, Size: e.group.size}
	}
	return nil
}

// request is the local realization of transport.Request: a handle to a
// goroutine performing a blocking channel operation, done() closes when
// it completes.
type request struct {
	peer   transport.PeerRank
	done   chan struct{}
	status transport.Status
}

func (r *request) Peer() transport.PeerRank { return r.peer }

func newRequest(peer transport.PeerRank) *request {
	return &request{peer: peer, done: make(chan struct{})}
}

func (r *request) finish(status transport.Status) {
	r.status = status
	close(r.done)
}

func (r *request) waitChan() chan struct{}        { return r.done }
func (r *request) resultStatus() transport.Status { return r.status }

// awaitable is satisfied by every request kind this backend produces
// (request and persistentRequest), letting WaitAny/WaitAll share one
// implementation regardless of which posted them.
type awaitable interface {
	transport.Request
	waitChan() chan struct{}
	resultStatus() transport.Status
}

func (e *Endpoint) PostRecv(peer transport.PeerRank, buf []byte, tag transport.Tag) (transport.Request, error) {
	if err := e.checkPeer(peer); err != nil {
		return nil, err
	}
	ch := e.group.mailboxFor(peer, e.rank, tag)
	req := newRequest(peer)
	go func() {
		data := <-ch
		if len(data) != len(buf) {
			req.finish(transport.Status{OK: false, Message: fmt.Sprintf(
				"local transport: recv from peer %d expected %d bytes, got %d", peer, len(buf), len(data))})
			return
		}
		copy(buf, data)
		req.finish(transport.Status{OK: true})
	}()
	return req, nil
}

func (e *Endpoint) PostSyncSend(peer transport.PeerRank, buf []byte, tag transport.Tag) (transport.Request, error) {
	if err := e.checkPeer(peer); err != nil {
		return nil, err
	}
	ch := e.group.mailboxFor(e.rank, peer, tag)
	req := newRequest(peer)
	payload := append([]byte(nil), buf...)
	go func() {
		ch <- payload
		req.finish(transport.Status{OK: true})
	}()
	return req, nil
}

func asAwaitable(r transport.Request) (awaitable, error) {
	lr, ok := r.(awaitable)
	if !ok {
		return nil, fmt.Errorf("local transport: foreign request type %T", r)
	}
	return lr, nil
}

func (e *Endpoint) WaitAny(reqs []transport.Request) (int, transport.Status, error) {
	if len(reqs) == 0 {
		return -1, transport.Status{}, fmt.Errorf("local transport: WaitAny requires at least one request")
	}
	cases := make([]reflect.SelectCase, len(reqs))
	for i, r := range reqs {
		lr, err := asAwaitable(r)
		if err != nil {
			return -1, transport.Status{}, err
		}
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(lr.waitChan())}
	}
	chosen, _, _ := reflect.Select(cases)
	lr, _ := asAwaitable(reqs[chosen])
	return chosen, lr.resultStatus(), nil
}

func (e *Endpoint) WaitAll(reqs []transport.Request) ([]transport.Status, error) {
	statuses := make([]transport.Status, len(reqs))
	for i, r := range reqs {
		lr, err := asAwaitable(r)
		if err != nil {
			return nil, err
		}
		<-lr.waitChan()
		statuses[i] = lr.resultStatus()
	}
	return statuses, nil
}

// AllReduceMinBool rendezvouses every rank in the group through a
// barrier and reduces via logical AND, the boolean analogue of a
// numeric min: false anywhere propagates as false everywhere.
func (e *Endpoint) AllReduceMinBool(local bool) (bool, error) {
	return e.group.barrier.reduceAnd(e.rank, local), nil
}

// localType is the in-process realization of transport.TypeHandle: since
// this backend has no one-sided memory access, it simply retains the
// segment list and the container bytes so a transfer can gather/scatter
// against them directly.
type localType struct {
	peer     transport.PeerRank
	segments []transport.Segment
	base     []byte
}

func (t *localType) Peer() transport.PeerRank { return t.peer }

func (e *Endpoint) CommitType(peer transport.PeerRank, segments []transport.Segment, base []byte) (transport.TypeHandle, error) {
	if err := e.checkPeer(peer); err != nil {
		return nil, err
	}
	return &localType{peer: peer, segments: segments, base: base}, nil
}

func (e *Endpoint) ReleaseType(t transport.TypeHandle) error {
	return nil
}

func gatherSegments(t *localType) []byte {
	total := 0
	for _, s := range t.segments {
		total += s.ByteLength
	}
	out := make([]byte, 0, total)
	for _, s := range t.segments {
		out = append(out, t.base[s.ByteDisplacement:s.ByteDisplacement+s.ByteLength]...)
	}
	return out
}

func scatterSegments(t *localType, data []byte) error {
	off := 0
	for _, s := range t.segments {
		if off+s.ByteLength > len(data) {
			return fmt.Errorf("local transport: derived-type message too short for peer %d", t.peer)
		}
		copy(t.base[s.ByteDisplacement:s.ByteDisplacement+s.ByteLength], data[off:off+s.ByteLength])
		off += s.ByteLength
	}
	return nil
}

// persistentRequest is the local realization of a persistent request:
// it records the operation to perform without performing it. Start
// spawns a fresh goroutine to actually carry it out, and may be called
// repeatedly (once per transfer) since the request is never consumed.
type persistentRequest struct {
	peer   transport.PeerRank
	ep     *Endpoint
	typ    *localType
	tag    transport.Tag
	isRecv bool

	mu     sync.Mutex
	done   chan struct{}
	status transport.Status
}

func (r *persistentRequest) Peer() transport.PeerRank { return r.peer }

func (r *persistentRequest) start() {
	r.mu.Lock()
	r.done = make(chan struct{})
	r.mu.Unlock()

	if r.isRecv {
		ch := r.ep.group.mailboxFor(r.peer, r.ep.rank, r.tag)
		go func() {
			data := <-ch
			status := transport.Status{OK: true}
			if err := scatterSegments(r.typ, data); err != nil {
				status = transport.Status{OK: false, Message: err.Error()}
			}
			r.mu.Lock()
			r.status = status
			close(r.done)
			r.mu.Unlock()
		}()
		return
	}

	ch := r.ep.group.mailboxFor(r.ep.rank, r.peer, r.tag)
	go func() {
		ch <- gatherSegments(r.typ)
		r.mu.Lock()
		r.status = transport.Status{OK: true}
		close(r.done)
		r.mu.Unlock()
	}()
}

func (r *persistentRequest) waitChan() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *persistentRequest) resultStatus() transport.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (e *Endpoint) PersistentRecv(peer transport.PeerRank, th transport.TypeHandle, tag transport.Tag) (transport.Request, error) {
	lt, ok := th.(*localType)
	if !ok {
		return nil, fmt.Errorf("local transport: foreign type handle %T", th)
	}
	if err := e.checkPeer(peer); err != nil {
		return nil, err
	}
	return &persistentRequest{peer: peer, ep: e, typ: lt, tag: tag, isRecv: true, done: closedChan()}, nil
}

func (e *Endpoint) PersistentSend(peer transport.PeerRank, th transport.TypeHandle, tag transport.Tag) (transport.Request, error) {
	lt, ok := th.(*localType)
	if !ok {
		return nil, fmt.Errorf("local transport: foreign type handle %T", th)
	}
	if err := e.checkPeer(peer); err != nil {
		return nil, err
	}
	return &persistentRequest{peer: peer, ep: e, typ: lt, tag: tag, isRecv: false, done: closedChan()}, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// StartAll starts every persistent request in reqs, spawning the
// goroutine that actually performs its channel operation. Requests
// returned by PostRecv/PostSyncSend are already running and are
// accepted here as a no-op, so callers may mix both request kinds.
func (e *Endpoint) StartAll(reqs []transport.Request) error {
	for _, r := range reqs {
		switch v := r.(type) {
		case *persistentRequest:
			v.start()
		case *request:
			// already running
		default:
			return fmt.Errorf("local transport: foreign request type %T", r)
		}
	}
	return nil
}
