package zmtp

import "github.com/zmtpfix/zmtpfix/frame"

// MaxPingContext is the largest context payload a PING/PONG may carry (§6).
const MaxPingContext = 16

// Ping builds a PING command frame with the given TTL (in deciseconds of
// heartbeat_timeout, per the wire format) and an opaque context echoed back
// verbatim by the peer's PONG.
func Ping(ttl uint16, context []byte) *frame.Frame {
	if len(context) > MaxPingContext {
		context = context[:MaxPingContext]
	}
	body := make([]byte, 2+len(context))
	body[0] = byte(ttl >> 8)
	body[1] = byte(ttl)
	copy(body[2:], context)

	f := frame.New()
	f.Flags = frame.FlagCommand
	f.Command = "PING"
	f.SetBytes(body)
	return f
}

// Pong builds the PONG reply to a received PING, echoing its context.
func Pong(pingContext []byte) *frame.Frame {
	f := frame.New()
	f.Flags = frame.FlagCommand
	f.Command = "PONG"
	f.SetBytes(pingContext)
	return f
}

// ParsePing extracts the TTL and context from a PING command frame's body.
func ParsePing(f *frame.Frame) (ttl uint16, context []byte, err error) {
	body := f.Bytes()
	if len(body) < 2 {
		return 0, nil, ErrCommand
	}
	ttl = uint16(body[0])<<8 | uint16(body[1])
	return ttl, body[2:], nil
}
