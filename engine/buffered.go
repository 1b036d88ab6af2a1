package engine

import (
	"encoding/binary"
	"math"

	"github.com/rocketbitz/parcomm/gatherscatter"
	"github.com/rocketbitz/parcomm/interfacex"
	"github.com/rocketbitz/parcomm/policy"
	"github.com/rocketbitz/parcomm/telemetry"
	"github.com/rocketbitz/parcomm/transport"
)

// BufferedEngine packs outbound values into contiguous staging areas,
// exchanges raw byte messages, and unpacks into destinations.
type BufferedEngine[V any] struct {
	pol policy.Policy[V, float64]
	cfg Config

	built  bool
	iface  *interfacex.Interface
	t      transport.Transport
	layout map[transport.PeerRank]messageLayout
	outBuf []byte
	inBuf  []byte
}

// NewBufferedEngine constructs a fresh BufferedEngine for containers
// addressed by pol.
func NewBufferedEngine[V any](pol policy.Policy[V, float64], cfg Config) *BufferedEngine[V] {
	return &BufferedEngine[V]{pol: pol, cfg: cfg}
}

// Build allocates layout and staging for iface. It requires a FixedOne
// policy; Variable policies must use BuildVariable.
func (e *BufferedEngine[V]) Build(iface *interfacex.Interface, t transport.Transport) error {
	if e.pol.Kind() != policy.FixedOne {
		return ConfigurationError{Reason: "Build(interface) requires a FixedOne policy; use BuildVariable for a Variable one"}
	}
	peers := iface.Peers()
	layout, outTotal, inTotal := buildLayout(peers, func(p transport.PeerRank) (int, int) {
		lists, _ := iface.Lists(p)
		return lists.Outgoing.Size() * primitiveSize, lists.Incoming.Size() * primitiveSize
	})
	return e.commitBuild(iface, t, layout, outTotal, inTotal)
}

// BuildVariable allocates layout and staging for iface using source and
// dest as layout witnesses: their per-index sizes fix the slice lengths,
// and subsequent Forward/Backward calls must use containers whose sizes
// match witness-for-witness. Valid for both FixedOne and Variable
// policies; required for Variable ones.
func (e *BufferedEngine[V]) BuildVariable(source, dest V, iface *interfacex.Interface, t transport.Transport) error {
	peers := iface.Peers()
	layout, outTotal, inTotal := buildLayout(peers, func(p transport.PeerRank) (int, int) {
		lists, _ := iface.Lists(p)
		return sumSizeAt(e.pol, source, lists.Outgoing) * primitiveSize, sumSizeAt(e.pol, dest, lists.Incoming) * primitiveSize
	})
	return e.commitBuild(iface, t, layout, outTotal, inTotal)
}

func sumSizeAt[V any](pol policy.Policy[V, float64], v V, list interfacex.InterfaceInformation) int {
	total := 0
	for i := 0; i < list.Size(); i++ {
		total += pol.SizeAt(v, list.At(i))
	}
	return total
}

func (e *BufferedEngine[V]) commitBuild(iface *interfacex.Interface, t transport.Transport, layout map[transport.PeerRank]messageLayout, outTotal, inTotal int) error {
	if err := e.cfg.ctxErr(); err != nil {
		return err
	}
	if e.built {
		_ = e.Free()
	}
	e.iface = iface
	e.t = t
	e.layout = layout
	e.outBuf = make([]byte, outTotal)
	e.inBuf = make([]byte, inTotal)
	e.built = true
	e.cfg.logger().Debugf("parcomm: buffered engine built: %d peers, %d/%d bytes out/in", len(iface.Peers()), outTotal, inTotal)
	return nil
}

// Free releases staging and layout. Idempotent: calling Free twice in a
// row is a no-op after the first call.
func (e *BufferedEngine[V]) Free() error {
	if !e.built {
		return nil
	}
	e.iface = nil
	e.t = nil
	e.layout = nil
	e.outBuf = nil
	e.inBuf = nil
	e.built = false
	e.cfg.logger().Debugf("parcomm: buffered engine freed")
	return nil
}

// Forward gathers from src using each peer's outgoing list into the
// outbound staging area, exchanges, then scatters into dst using each
// peer's incoming list.
func (e *BufferedEngine[V]) Forward(src, dst V, gs gatherscatter.GatherScatter[V]) error {
	return e.transfer(directionForward, src, dst, gs)
}

// ForwardInto is shorthand for Forward(v, v, gs).
func (e *BufferedEngine[V]) ForwardInto(v V, gs gatherscatter.GatherScatter[V]) error {
	return e.Forward(v, v, gs)
}

// Backward is the inverse of Forward: it gathers from src using each
// peer's incoming list, scatters into dst using each peer's outgoing
// list, and the roles of the two staging areas swap.
func (e *BufferedEngine[V]) Backward(src, dst V, gs gatherscatter.GatherScatter[V]) error {
	return e.transfer(directionBackward, src, dst, gs)
}

// BackwardInto is shorthand for Backward(v, v, gs).
func (e *BufferedEngine[V]) BackwardInto(v V, gs gatherscatter.GatherScatter[V]) error {
	return e.Backward(v, v, gs)
}

type direction int

const (
	directionForward direction = iota
	directionBackward
)

func (d direction) String() string {
	if d == directionForward {
		return "forward"
	}
	return "backward"
}

type postedRequest struct {
	peer transport.PeerRank
	req  transport.Request
}

func (e *BufferedEngine[V]) transfer(dir direction, src, dst V, gs gatherscatter.GatherScatter[V]) error {
	if !e.built {
		return ConfigurationError{Reason: "transfer requires Build or BuildVariable first"}
	}

	attrs := map[string]string{telemetry.AttrEngine: "buffered", telemetry.AttrDirection: dir.String()}
	span := e.cfg.tracer().StartSpan("parcomm.transfer", telemetry.TraceAttribute{Key: telemetry.AttrEngine, Value: "buffered"}, telemetry.TraceAttribute{Key: telemetry.AttrDirection, Value: dir.String()})
	e.cfg.metrics().TransferStarted(attrs)

	peers := e.iface.Peers()
	sendBuf, recvBuf := e.outBuf, e.inBuf
	if dir == directionBackward {
		sendBuf, recvBuf = e.inBuf, e.outBuf
	}

	// Gather: fill each peer's send region before posting anything.
	for _, p := range peers {
		lists, _ := e.iface.Lists(p)
		layout := e.layout[p]
		gatherList, sendSlice := lists.Outgoing, layout.out
		if dir == directionBackward {
			gatherList, sendSlice = lists.Incoming, layout.in
		}
		if e.pol.Kind() == policy.Variable {
			want := sumSizeAt(e.pol, src, gatherList) * primitiveSize
			if want != sendSlice.length {
				span.End(SizeMismatchError{Peer: p, Expected: sendSlice.length, Actual: want})
				return SizeMismatchError{Peer: p, Expected: sendSlice.length, Actual: want}
			}
		}
		e.gatherInto(sendSlice.window(sendBuf), gs, src, gatherList)
		e.cfg.metrics().BytesGathered(sendSlice.length, attrs)
	}

	tag := e.cfg.tag()

	recvPosted := make([]postedRequest, 0, len(peers))
	for _, p := range peers {
		layout := e.layout[p]
		recvSlice := layout.in
		if dir == directionBackward {
			recvSlice = layout.out
		}
		req, err := e.t.PostRecv(p, recvSlice.window(recvBuf), tag)
		if err != nil {
			span.End(err)
			return err
		}
		recvPosted = append(recvPosted, postedRequest{peer: p, req: req})
	}

	sendPosted := make([]postedRequest, 0, len(peers))
	for _, p := range peers {
		layout := e.layout[p]
		sendSlice := layout.out
		if dir == directionBackward {
			sendSlice = layout.in
		}
		req, err := e.t.PostSyncSend(p, sendSlice.window(sendBuf), tag)
		if err != nil {
			span.End(err)
			return err
		}
		sendPosted = append(sendPosted, postedRequest{peer: p, req: req})
	}

	var failures []TransportError

	active := append([]postedRequest(nil), recvPosted...)
	for len(active) > 0 {
		reqs := make([]transport.Request, len(active))
		for i, a := range active {
			reqs[i] = a.req
		}
		idx, status, err := e.t.WaitAny(reqs)
		if err != nil {
			span.End(err)
			return err
		}
		p := active[idx].peer
		if status.OK {
			lists, _ := e.iface.Lists(p)
			layout := e.layout[p]
			scatterList, recvSlice := lists.Incoming, layout.in
			if dir == directionBackward {
				scatterList, recvSlice = lists.Outgoing, layout.out
			}
			e.scatterFrom(recvSlice.window(recvBuf), gs, dst, scatterList)
			e.cfg.metrics().BytesScattered(recvSlice.length, attrs)
			span.AddEvent("peer drained", telemetry.TraceAttribute{Key: telemetry.AttrPeer, Value: int(p)})
		} else {
			failures = append(failures, TransportError{Peer: p, Message: status.Message})
			e.cfg.structuredLogger().Debugw("parcomm: transport error on receive", "peer", p, "message", status.Message)
			e.cfg.metrics().PeerFailed(int(p), TransportError{Peer: p, Message: status.Message}, attrs)
		}
		active = append(active[:idx], active[idx+1:]...)
	}

	sendReqs := make([]transport.Request, len(sendPosted))
	for i, s := range sendPosted {
		sendReqs[i] = s.req
	}
	statuses, err := e.t.WaitAll(sendReqs)
	if err != nil {
		span.End(err)
		return err
	}
	for i, st := range statuses {
		if !st.OK {
			p := sendPosted[i].peer
			failures = append(failures, TransportError{Peer: p, Message: st.Message})
			e.cfg.structuredLogger().Debugw("parcomm: transport error on send", "peer", p, "message", st.Message)
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

func (e *BufferedEngine[V]) gatherInto(buf []byte, gs gatherscatter.GatherScatter[V], v V, list interfacex.InterfaceInformation) {
	pos := 0
	for i := 0; i < list.Size(); i++ {
		idx := list.At(i)
		n := e.pol.SizeAt(v, idx)
		for j := 0; j < n; j++ {
			val := gs.Gather(v, idx, j)
			binary.LittleEndian.PutUint64(buf[pos:pos+primitiveSize], math.Float64bits(val))
			pos += primitiveSize
		}
	}
}

func (e *BufferedEngine[V]) scatterFrom(buf []byte, gs gatherscatter.GatherScatter[V], v V, list interfacex.InterfaceInformation) {
	pos := 0
	for i := 0; i < list.Size(); i++ {
		idx := list.At(i)
		n := e.pol.SizeAt(v, idx)
		for j := 0; j < n; j++ {
			bits := binary.LittleEndian.Uint64(buf[pos : pos+primitiveSize])
			gs.Scatter(v, math.Float64frombits(bits), idx, j)
			pos += primitiveSize
		}
	}
}
