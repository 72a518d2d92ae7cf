// Package frame represents one ZMTP message part (§3 Frame) and the
// multipart messages built out of a sequence of them.
//
// A Frame owns its payload through one of three storage forms: an inline
// buffer for small bodies, a heap buffer with a reference count for cheap
// fan-out (PUB-style distribution, ROUTER duplication), or an externally
// owned buffer released through a deleter callback. Callers get an empty
// Frame from Pool.Get and must return it exactly once via Pool.Put, the
// same discipline bgpfix's msg.Msg/Pipe.Get/Pipe.Put use.
package frame

import (
	"sync/atomic"
	"time"
)

// maxInline is the largest payload kept in the Frame's own array, chosen
// the way libzmq sizes its VSM (very small message) storage: big enough for
// routing ids, short control frames and typical command bodies, small
// enough that Frame itself stays cheap to copy by value internals.
const maxInline = 30

// kind distinguishes how Data is backed.
type kind uint8

const (
	kindInline kind = iota
	kindHeap
	kindExternal
)

// Flags are the wire-level bits of a frame (§3, §6). PING/PONG/SUBSCRIBE/
// CANCEL and the other command names are not separate bits: they are the
// ASCII command name carried in a COMMAND frame's body, see CommandName.
type Flags uint8

const (
	FlagMore       Flags = 1 << 0 // more frames follow in this multipart message
	FlagCommand    Flags = 1 << 1 // a COMMAND frame, never delivered to recv
	FlagCredential Flags = 1 << 2 // carries mechanism credential bytes
	FlagRoutingID  Flags = 1 << 3 // Data is a peer routing id, not a payload
	FlagShared     Flags = 1 << 4 // buffer may be referenced by more than one Frame
	FlagDelimiter  Flags = 1 << 5 // Pipe-internal: never serialised, never delivered to recv
)

// Has reports whether all bits in f are set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Frame is one ZMTP message part.
type Frame struct {
	Flags     Flags
	RoutingID uint32 // nonzero when valid; used by ROUTER-style dispatch
	Group     string // DISH/RADIO group label, ≤255 bytes; empty means unset
	Command   string // ASCII command name iff FlagCommand is set (READY, PING, ...)
	Time      time.Time
	Meta      *Metadata // optional refcounted property dictionary

	kind    kind
	inline  [maxInline]byte
	inlineN uint8
	heap    *heapBuf
	ext     []byte
	extFree func([]byte)
}

// heapBuf is a reference-counted heap buffer, shared cheaply between Frames
// carrying the FlagShared bit (PUB fan-out, ROUTER broadcast). refs is an
// atomic.Int32, the same refcount idiom Metadata uses, since clones of a
// shared Frame are routinely Clone'd and Reset/released from different
// Sessions on different I/O-thread goroutines.
type heapBuf struct {
	data []byte
	refs atomic.Int32
}

// New returns a new, empty Frame. Prefer a Pool in hot paths.
func New() *Frame {
	return &Frame{}
}

// Reset clears f for reuse, releasing any heap/external backing.
func (f *Frame) Reset() *Frame {
	f.release()
	f.Flags = 0
	f.RoutingID = 0
	f.Group = ""
	f.Command = ""
	f.Time = time.Time{}
	f.Meta = nil
	f.kind = kindInline
	f.inlineN = 0
	f.ext = nil
	f.extFree = nil
	return f
}

func (f *Frame) release() {
	if f.kind == kindHeap && f.heap != nil {
		if f.heap.refs.Add(-1) <= 0 {
			f.heap = nil
		}
	}
	if f.kind == kindExternal && f.extFree != nil {
		f.extFree(f.ext)
	}
}

// SetBytes copies src into f, choosing inline or heap storage by size.
func (f *Frame) SetBytes(src []byte) *Frame {
	f.release()
	if len(src) <= maxInline {
		f.kind = kindInline
		f.inlineN = uint8(copy(f.inline[:], src))
		return f
	}
	f.kind = kindHeap
	buf := make([]byte, len(src))
	copy(buf, src)
	f.heap = &heapBuf{data: buf}
	f.heap.refs.Store(1)
	return f
}

// SetExternal makes f reference buf directly, calling free(buf) once the
// last Frame referencing it is released. Used for zero-copy reads off a
// connection's decode buffer.
func (f *Frame) SetExternal(buf []byte, free func([]byte)) *Frame {
	f.release()
	f.kind = kindExternal
	f.ext = buf
	f.extFree = free
	return f
}

// Bytes returns the frame payload. The slice must not be retained past the
// Frame's next mutation unless the SHARED flag is set.
func (f *Frame) Bytes() []byte {
	switch f.kind {
	case kindInline:
		return f.inline[:f.inlineN]
	case kindHeap:
		if f.heap == nil {
			return nil
		}
		return f.heap.data
	case kindExternal:
		return f.ext
	default:
		return nil
	}
}

// Len returns the payload length in bytes.
func (f *Frame) Len() int {
	return len(f.Bytes())
}

// Clone returns a Frame sharing this one's backing buffer (bumping the heap
// refcount and setting FlagShared), the cheap fan-out path used by PUB and
// ROUTER broadcast-style sends. Inline/external frames are deep-copied since
// they have no refcount to share.
func (f *Frame) Clone() *Frame {
	c := New()
	c.Flags = f.Flags
	c.RoutingID = f.RoutingID
	c.Group = f.Group
	c.Command = f.Command
	c.Time = f.Time
	c.Meta = f.Meta.clone()

	switch f.kind {
	case kindHeap:
		f.heap.refs.Add(1)
		c.kind = kindHeap
		c.heap = f.heap
		c.Flags |= FlagShared
		f.Flags |= FlagShared
	default:
		c.SetBytes(f.Bytes())
	}
	return c
}

// IsDelimiter reports whether f is the distinguished delimiter frame used by
// Pipe termination (§4.2). Never serialised to the wire, never delivered.
func (f *Frame) IsDelimiter() bool {
	return f.Flags.Has(FlagDelimiter)
}

// Delimiter returns a fresh delimiter frame.
func Delimiter() *Frame {
	f := New()
	f.Flags = FlagDelimiter
	return f
}
