package zmtp

import (
	"github.com/zmtpfix/zmtpfix/frame"
)

// Status is the handshake state of a Mechanism.
type Status int

const (
	StatusHandshaking Status = iota
	StatusReady
	StatusError
)

// Mechanism drives the security handshake that follows the greeting on a
// v3+ connection (§4.4). NextHandshakeCommand produces the next outbound
// COMMAND frame, or (nil, false) if nothing is due yet. ProcessHandshakeCommand
// consumes one inbound COMMAND frame. Status reports whether the handshake
// has completed (and the connection may carry user frames) or failed.
//
// Concrete mechanisms (NULL, PLAIN here; CURVE and GSSAPI behind the same
// interface) plug into Engine the way bgpfix's Callback plugs into a Pipe's
// Input: the engine drives the interface without knowing the mechanism.
type Mechanism interface {
	Name() string
	NextHandshakeCommand() (*frame.Frame, bool, error)
	ProcessHandshakeCommand(*frame.Frame) error
	Status() Status
	Metadata() *frame.Metadata // negotiated properties once Status()==StatusReady
}

func readyFrame(meta map[string]string) *frame.Frame {
	f := frame.New()
	f.Flags = frame.FlagCommand
	f.Command = "READY"

	var body []byte
	for k, v := range meta {
		body = append(body, byte(len(k)))
		body = append(body, k...)
		var lenb [4]byte
		wire32(lenb[:], uint32(len(v)))
		body = append(body, lenb[:]...)
		body = append(body, v...)
	}
	f.SetBytes(body)
	return f
}

func wire32(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func readWire32(src []byte) uint32 {
	return uint32(src[0])<<24 | uint32(src[1])<<16 | uint32(src[2])<<8 | uint32(src[3])
}

// parseReadyBody decodes a READY command body into its property dictionary:
// repeated [namelen:u8][name][vallen:u32 BE][value].
func parseReadyBody(body []byte) (map[string]string, error) {
	props := make(map[string]string)
	for len(body) > 0 {
		if len(body) < 1 {
			return nil, ErrCommand
		}
		nlen := int(body[0])
		body = body[1:]
		if len(body) < nlen+4 {
			return nil, ErrCommand
		}
		name := string(body[:nlen])
		body = body[nlen:]
		vlen := int(readWire32(body))
		body = body[4:]
		if len(body) < vlen {
			return nil, ErrCommand
		}
		props[name] = string(body[:vlen])
		body = body[vlen:]
	}
	return props, nil
}

func errorFrame(reason string) *frame.Frame {
	f := frame.New()
	f.Flags = frame.FlagCommand
	f.Command = "ERROR"
	if len(reason) > 255 {
		reason = reason[:255]
	}
	body := make([]byte, 1+len(reason))
	body[0] = byte(len(reason))
	copy(body[1:], reason)
	f.SetBytes(body)
	return f
}
