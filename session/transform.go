package session

import "github.com/zmtpfix/zmtpfix/frame"

// Transform applies a per-socket-type wire-level adjustment between the
// Pipe and the wire, the part of §4.4's "per-type session subclasses" that
// isn't already the Pattern's job. REQ/REP's delimiter-and-request-id
// envelope lives in socket.reqPattern/repPattern instead, since the
// Pattern needs to see it to enforce EFSM and replay the envelope; what is
// left here is wire-only framing no Pattern touches: the RADIO/DISH group
// label (frame.Frame.Group is never serialised by Frame.WriteTo, so the
// session has to turn it into a literal leading frame) and a configured
// first message sent once per connection (HELLO_MSG).
type Transform interface {
	// Outbound runs once per multipart group pulled off the Pipe before the
	// Engine encodes it onto the wire.
	Outbound(parts []*frame.Frame) []*frame.Frame
	// Inbound runs once per multipart group the Engine decoded off the
	// wire before it is pushed into the Pipe for the Socket to read.
	Inbound(parts []*frame.Frame) []*frame.Frame
}

// identityTransform is the default for any socket type without a
// wire-level quirk.
type identityTransform struct{}

func (identityTransform) Outbound(parts []*frame.Frame) []*frame.Frame { return parts }
func (identityTransform) Inbound(parts []*frame.Frame) []*frame.Frame  { return parts }

// radioTransform prepends the Frame.Group label RADIO's Send attached to
// the first body frame as a literal wire frame.
type radioTransform struct{ identityTransform }

func (radioTransform) Outbound(parts []*frame.Frame) []*frame.Frame {
	if len(parts) == 0 {
		return parts
	}
	group := frame.New().SetBytes([]byte(parts[0].Group))
	return append([]*frame.Frame{group}, parts...)
}

// dishTransform strips the leading group-label wire frame radioTransform
// prepends and attaches it to Frame.Group on the remaining body frames so
// dishPattern can filter/join by group.
type dishTransform struct{ identityTransform }

func (dishTransform) Inbound(parts []*frame.Frame) []*frame.Frame {
	if len(parts) < 2 {
		return parts
	}
	group := string(parts[0].Bytes())
	body := parts[1:]
	for _, f := range body {
		f.Group = group
	}
	return body
}

// NewRadioTransform returns the RADIO/DISH group-label Transform for a
// RADIO socket's Session.
func NewRadioTransform() Transform { return radioTransform{} }

// NewDishTransform returns the RADIO/DISH group-label Transform for a DISH
// socket's Session.
func NewDishTransform() Transform { return dishTransform{} }

// helloMsgTransform emits a configured first message once the handshake
// completes (§6 HELLO_MSG), ahead of anything the Pipe delivers. It does
// not implement Outbound/Inbound transforms of its own; Session calls
// Hello directly from its OnReady hook and otherwise treats this as an
// identityTransform.
type helloMsgTransform struct {
	identityTransform
	pending [][]byte
	sent    bool
}

func newHelloMsgTransform(msgs [][]byte) *helloMsgTransform {
	return &helloMsgTransform{pending: msgs}
}

// Hello returns the configured HELLO_MSG frames the first time it is
// called, nil on every call after.
func (h *helloMsgTransform) Hello() []*frame.Frame {
	if h.sent || len(h.pending) == 0 {
		return nil
	}
	h.sent = true
	out := make([]*frame.Frame, len(h.pending))
	for i, b := range h.pending {
		out[i] = frame.New().SetBytes(b)
	}
	return out
}
