package zmtp

import (
	"io"
)

// GreetingLen is the fixed size of the ZMTP greeting (§4.4).
const GreetingLen = 64

// MajorVersion is the version byte this implementation sends; 3.1 per spec.
const (
	MajorVersion byte = 3
	MinorVersion byte = 1
)

var signature = [10]byte{0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0x7F}

// Greeting is the 64-byte handshake exchanged on a fresh connection before
// any user frame, mirroring the fixed BGP OPEN header bgpfix decodes first
// off the wire, except here the layout is entirely fixed-width.
type Greeting struct {
	Major     byte
	Minor     byte
	Mechanism string // zero-padded to 20 bytes on the wire
	AsServer  bool
}

// Legacy reports whether a peer's first greeting byte indicates a pre-3.0
// peer: such a peer never sends the rest of the signature and speaks
// unversioned v1.0 framing directly.
func Legacy(firstByte byte) bool {
	return firstByte != 0xFF
}

// WriteTo marshals g as the 64-byte ZMTP greeting.
func (g *Greeting) WriteTo(w io.Writer) (n int64, err error) {
	var buf [GreetingLen]byte
	copy(buf[0:10], signature[:])
	buf[9] = 0x7F // right-most bit of byte 9 set: ZMTP/2+

	buf[10] = g.Major
	buf[11] = g.Minor

	copy(buf[12:32], g.Mechanism)

	if g.AsServer {
		buf[32] = 1
	}

	m, err := w.Write(buf[:])
	return int64(m), err
}

// FromBytes parses a complete 64-byte greeting from buf.
func (g *Greeting) FromBytes(buf []byte) error {
	if len(buf) < GreetingLen {
		return io.ErrUnexpectedEOF
	}
	if buf[0] != 0xFF || buf[9] != 0x7F {
		return ErrSignature
	}

	g.Major = buf[10]
	g.Minor = buf[11]

	end := 32
	for end > 12 && buf[end-1] == 0 {
		end--
	}
	g.Mechanism = string(buf[12:end])
	g.AsServer = buf[32] != 0

	return nil
}

// Default returns the greeting this implementation sends: version 3.1 with
// the given mechanism name and as-server flag.
func Default(mechanism string, asServer bool) *Greeting {
	return &Greeting{
		Major:     MajorVersion,
		Minor:     MinorVersion,
		Mechanism: mechanism,
		AsServer:  asServer,
	}
}
