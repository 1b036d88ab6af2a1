package engine

import (
	"fmt"
	"strings"

	"github.com/rocketbitz/parcomm/transport"
)

// ConfigurationError indicates an engine was used in the wrong state, or
// with a configuration its policy cannot support (e.g. Build under a
// Variable policy).
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "parcomm: configuration error: " + e.Reason
}

// SizeMismatchError indicates that, under a Variable policy, the
// container passed to a transfer no longer matches the precomputed
// layout: the primitives it holds along a peer's gather list add up to
// a different byte count than the slice recorded at build time. It is
// checked on the gather side before anything is posted. An arriving
// message whose length differs from its inbound slice is not reported
// as a SizeMismatchError; the transport reports it as a failed receive
// status, which surfaces as a TransportError.
type SizeMismatchError struct {
	Peer     transport.PeerRank
	Expected int
	Actual   int
}

func (e SizeMismatchError) Error() string {
	return fmt.Sprintf("parcomm: size mismatch for peer %d: expected %d bytes, got %d", e.Peer, e.Expected, e.Actual)
}

// TransportError records a non-success status the transport reported
// for one peer during a transfer.
type TransportError struct {
	Peer    transport.PeerRank
	Message string
}

func (e TransportError) Error() string {
	return fmt.Sprintf("parcomm: transport error from peer %d: %s", e.Peer, e.Message)
}

// CommunicationError is raised when any process in the peer group
// reported a TransportError during a transfer; the all-reduce over
// success guarantees every process raises it symmetrically.
type CommunicationError struct {
	Failures []TransportError
}

func (e *CommunicationError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return "parcomm: communication error: " + strings.Join(msgs, "; ")
}

func (e *CommunicationError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
