package engine

import (
	"github.com/rocketbitz/parcomm/interfacex"
	"github.com/rocketbitz/parcomm/policy"
	"github.com/rocketbitz/parcomm/telemetry"
	"github.com/rocketbitz/parcomm/transport"
)

// BytePolicy is the addressing contract DatatypeEngine requires: a
// Policy whose container keeps its primitives in one contiguous backing
// array, so entries can be described as (length, byte-displacement)
// pairs against a single base address instead of copied through a
// staging buffer.
type BytePolicy[V any] interface {
	policy.Policy[V, float64]
	policy.ByteAddressable[V]
}

// IndexFilter is an attribute predicate over local indices: an index
// contributes to a direction iff its filter returns true. A nil filter
// admits every index in the list it is applied to.
type IndexFilter func(localIndex int) bool

func (f IndexFilter) admits(idx int) bool {
	return f == nil || f(idx)
}

// DatatypeEngine describes each peer's non-contiguous memory region to
// the transport as a single derived type instead of staging through a
// byte buffer.
type DatatypeEngine[V any] struct {
	pol BytePolicy[V]
	cfg Config

	built bool
	iface *interfacex.Interface
	t     transport.Transport

	sendTypes map[transport.PeerRank]transport.TypeHandle
	recvTypes map[transport.PeerRank]transport.TypeHandle

	forward  reqSet
	backward reqSet
}

// NewDatatypeEngine constructs a fresh DatatypeEngine for containers
// addressed by pol.
func NewDatatypeEngine[V any](pol BytePolicy[V], cfg Config) *DatatypeEngine[V] {
	return &DatatypeEngine[V]{pol: pol, cfg: cfg}
}

type reqSet struct {
	recvReqs  []transport.Request
	recvPeers []transport.PeerRank
	sendReqs  []transport.Request
	sendPeers []transport.PeerRank
}

// Build walks iface once per direction, committing one hindexed derived
// type per (peer, direction) with the transport, then registers
// persistent request sets for forward and reverse transfers bound to
// those types. sourceFilter gates which outgoing indices participate in
// sends from sendData; destFilter gates which incoming indices
// participate in receives into recvData.
func (e *DatatypeEngine[V]) Build(iface *interfacex.Interface, sourceFilter IndexFilter, sendData V, destFilter IndexFilter, recvData V, t transport.Transport) error {
	if err := e.cfg.ctxErr(); err != nil {
		return err
	}
	if e.built {
		if err := e.Free(); err != nil {
			return err
		}
	}

	peers := iface.Peers()
	sendTypes := make(map[transport.PeerRank]transport.TypeHandle, len(peers))
	recvTypes := make(map[transport.PeerRank]transport.TypeHandle, len(peers))

	for _, p := range peers {
		lists, _ := iface.Lists(p)
		sendSegs := e.segments(sendData, lists.Outgoing, sourceFilter)
		recvSegs := e.segments(recvData, lists.Incoming, destFilter)

		st, err := t.CommitType(p, sendSegs, e.pol.BaseBytes(sendData))
		if err != nil {
			return err
		}
		rt, err := t.CommitType(p, recvSegs, e.pol.BaseBytes(recvData))
		if err != nil {
			return err
		}
		sendTypes[p] = st
		recvTypes[p] = rt
	}

	tag := e.cfg.tag()

	forward := reqSet{}
	backward := reqSet{}
	for _, p := range peers {
		recvReq, err := t.PersistentRecv(p, recvTypes[p], tag)
		if err != nil {
			return err
		}
		sendReq, err := t.PersistentSend(p, sendTypes[p], tag)
		if err != nil {
			return err
		}
		forward.recvReqs = append(forward.recvReqs, recvReq)
		forward.recvPeers = append(forward.recvPeers, p)
		forward.sendReqs = append(forward.sendReqs, sendReq)
		forward.sendPeers = append(forward.sendPeers, p)

		// Reverse direction rebinds the same two committed types with
		// the roles swapped: backward reads what forward wrote (the
		// outgoing-side memory) and writes what forward read from (the
		// incoming-side memory).
		backRecvReq, err := t.PersistentRecv(p, sendTypes[p], tag)
		if err != nil {
			return err
		}
		backSendReq, err := t.PersistentSend(p, recvTypes[p], tag)
		if err != nil {
			return err
		}
		backward.recvReqs = append(backward.recvReqs, backRecvReq)
		backward.recvPeers = append(backward.recvPeers, p)
		backward.sendReqs = append(backward.sendReqs, backSendReq)
		backward.sendPeers = append(backward.sendPeers, p)
	}

	e.iface = iface
	e.t = t
	e.sendTypes = sendTypes
	e.recvTypes = recvTypes
	e.forward = forward
	e.backward = backward
	e.built = true
	e.cfg.logger().Debugf("parcomm: datatype engine built: %d peers", len(peers))
	return nil
}

func (e *DatatypeEngine[V]) segments(v V, list interfacex.InterfaceInformation, filter IndexFilter) []transport.Segment {
	segs := make([]transport.Segment, 0, list.Size())
	for i := 0; i < list.Size(); i++ {
		idx := list.At(i)
		if !filter.admits(idx) {
			continue
		}
		segs = append(segs, transport.Segment{
			ByteLength:       e.pol.SizeAt(v, idx) * primitiveSize,
			ByteDisplacement: e.pol.ByteDisplacement(v, idx),
		})
	}
	return segs
}

// Forward starts every receive handle, starts every send handle, waits
// for sends, then waits for receives, exactly as specified.
func (e *DatatypeEngine[V]) Forward() error {
	return e.run("forward", e.forward)
}

// Backward is the reverse persistent request set built at Build time.
func (e *DatatypeEngine[V]) Backward() error {
	return e.run("backward", e.backward)
}

func (e *DatatypeEngine[V]) run(direction string, rs reqSet) error {
	if !e.built {
		return ConfigurationError{Reason: "transfer requires Build first"}
	}

	attrs := map[string]string{telemetry.AttrEngine: "datatype", telemetry.AttrDirection: direction}
	span := e.cfg.tracer().StartSpan("parcomm.transfer", telemetry.TraceAttribute{Key: telemetry.AttrEngine, Value: "datatype"}, telemetry.TraceAttribute{Key: telemetry.AttrDirection, Value: direction})
	e.cfg.metrics().TransferStarted(attrs)

	if err := e.t.StartAll(rs.recvReqs); err != nil {
		span.End(err)
		return err
	}
	if err := e.t.StartAll(rs.sendReqs); err != nil {
		span.End(err)
		return err
	}

	var failures []TransportError

	sendStatuses, err := e.t.WaitAll(rs.sendReqs)
	if err != nil {
		span.End(err)
		return err
	}
	for i, st := range sendStatuses {
		if !st.OK {
			p := rs.sendPeers[i]
			failures = append(failures, TransportError{Peer: p, Message: st.Message})
			e.cfg.structuredLogger().Debugw("parcomm: transport error on send", "peer", p, "message", st.Message)
			e.cfg.metrics().PeerFailed(int(p), TransportError{Peer: p, Message: st.Message}, attrs)
		}
	}

	recvStatuses, err := e.t.WaitAll(rs.recvReqs)
	if err != nil {
		span.End(err)
		return err
	}
	for i, st := range recvStatuses {
		if !st.OK {
			p := rs.recvPeers[i]
			failures = append(failures, TransportError{Peer: p, Message: st.Message})
			e.cfg.structuredLogger().Debugw("parcomm: transport error on receive", "peer", p, "message", st.Message)
			e.cfg.metrics().PeerFailed(int(p), TransportError{Peer: p, Message: st.Message}, attrs)
		}
	}

	globalOK, err := e.t.AllReduceMinBool(len(failures) == 0)
	if err != nil {
		span.End(err)
		return err
	}
	if !globalOK {
		commErr := &CommunicationError{Failures: failures}
		span.End(commErr)
		e.cfg.metrics().TransferFailed(commErr, attrs)
		return commErr
	}

	span.End(nil)
	e.cfg.metrics().TransferCompleted(attrs)
	return nil
}

// Free releases request handles and commit-releases each derived type.
// Idempotent.
func (e *DatatypeEngine[V]) Free() error {
	if !e.built {
		return nil
	}
	for _, t := range e.sendTypes {
		_ = e.t.ReleaseType(t)
	}
	for _, t := range e.recvTypes {
		_ = e.t.ReleaseType(t)
	}
	e.sendTypes = nil
	e.recvTypes = nil
	e.forward = reqSet{}
	e.backward = reqSet{}
	e.iface = nil
	e.t = nil
	e.built = false
	e.cfg.logger().Debugf("parcomm: datatype engine freed")
	return nil
}
