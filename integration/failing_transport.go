// Package integration exercises the engine package end-to-end against
// the transport/local backend, including a synthetic Transport that
// injects a per-peer receive failure to test communication-error
// propagation without a real faulty backend.
package integration

import (
	"github.com/rocketbitz/parcomm/transport"
)

// failingTransport wraps a real Transport and reports every completed
// recv from a chosen peer as failed, without disturbing the underlying
// exchange (the real bytes still move so the peer's matching send does
// not hang).
type failingTransport struct {
	inner    transport.Transport
	failPeer transport.PeerRank
	failTag  transport.Tag
}

func withFailingRecv(inner transport.Transport, peer transport.PeerRank, tag transport.Tag) *failingTransport {
	return &failingTransport{inner: inner, failPeer: peer, failTag: tag}
}

func (f *failingTransport) PeerGroup() transport.PeerGroup { return f.inner.PeerGroup() }

type taggedRequest struct {
	transport.Request
	peer      transport.PeerRank
	tag       transport.Tag
	injectFor *failingTransport
}

func (f *failingTransport) PostRecv(peer transport.PeerRank, buf []byte, tag transport.Tag) (transport.Request, error) {
	req, err := f.inner.PostRecv(peer, buf, tag)
	if err != nil {
		return nil, err
	}
	return taggedRequest{Request: req, peer: peer, tag: tag, injectFor: f}, nil
}

func (f *failingTransport) PostSyncSend(peer transport.PeerRank, buf []byte, tag transport.Tag) (transport.Request, error) {
	return f.inner.PostSyncSend(peer, buf, tag)
}

func (f *failingTransport) unwrap(reqs []transport.Request) ([]transport.Request, []*taggedRequest) {
	inner := make([]transport.Request, len(reqs))
	tagged := make([]*taggedRequest, len(reqs))
	for i, r := range reqs {
		if tr, ok := r.(taggedRequest); ok {
			inner[i] = tr.Request
			tagged[i] = &tr
			continue
		}
		inner[i] = r
	}
	return inner, tagged
}

func (f *failingTransport) shouldFail(t *taggedRequest) bool {
	return t != nil && t.peer == f.failPeer && t.tag == f.failTag
}

func (f *failingTransport) WaitAny(reqs []transport.Request) (int, transport.Status, error) {
	inner, tagged := f.unwrap(reqs)
	which, status, err := f.inner.WaitAny(inner)
	if err != nil {
		return which, status, err
	}
	if f.shouldFail(tagged[which]) {
		status = transport.Status{OK: false, Message: "injected failure: recv from peer rejected"}
	}
	return which, status, nil
}

func (f *failingTransport) WaitAll(reqs []transport.Request) ([]transport.Status, error) {
	inner, tagged := f.unwrap(reqs)
	statuses, err := f.inner.WaitAll(inner)
	if err != nil {
		return nil, err
	}
	for i, t := range tagged {
		if f.shouldFail(t) {
			statuses[i] = transport.Status{OK: false, Message: "injected failure: recv from peer rejected"}
		}
	}
	return statuses, nil
}

func (f *failingTransport) AllReduceMinBool(local bool) (bool, error) {
	return f.inner.AllReduceMinBool(local)
}

func (f *failingTransport) CommitType(peer transport.PeerRank, segments []transport.Segment, base []byte) (transport.TypeHandle, error) {
	return f.inner.CommitType(peer, segments, base)
}

func (f *failingTransport) ReleaseType(t transport.TypeHandle) error {
	return f.inner.ReleaseType(t)
}

func (f *failingTransport) PersistentRecv(peer transport.PeerRank, t transport.TypeHandle, tag transport.Tag) (transport.Request, error) {
	req, err := f.inner.PersistentRecv(peer, t, tag)
	if err != nil {
		return nil, err
	}
	return taggedRequest{Request: req, peer: peer, tag: tag, injectFor: f}, nil
}

func (f *failingTransport) PersistentSend(peer transport.PeerRank, t transport.TypeHandle, tag transport.Tag) (transport.Request, error) {
	return f.inner.PersistentSend(peer, t, tag)
}

func (f *failingTransport) StartAll(reqs []transport.Request) error {
	inner, _ := f.unwrap(reqs)
	return f.inner.StartAll(inner)
}

var _ transport.Transport = (*failingTransport)(nil)
