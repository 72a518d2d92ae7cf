// Package pipe implements the bidirectional, HWM-bounded message queue
// connecting one socket to one engine or to another socket (inproc), per
// §4.1-§4.2. It is the Go analogue of the original pipe_t: two halves share
// a pair of queues, each half owned by exactly one goroutine, with no
// raw-pointer ownership edge between them — a Pipe only ever calls its
// peer's exported methods, the same discipline bgpfix gives its Line/Input
// pair.
package pipe

import (
	"sync/atomic"

	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/ypipe"
)

// Events receives pipe lifecycle notifications, mirroring the original
// PipeEvents trait (ReadActivated/WriteActivated/Hiccuped/Terminated).
// A nil Events is valid: all methods are no-ops then.
type Events interface {
	ReadActivated(p *Pipe)
	WriteActivated(p *Pipe)
	Hiccuped(p *Pipe)
	Terminated(p *Pipe)
}

// Pipe is one half of a connected pair. Frames written here land in the
// peer's in-queue; frames read here were written by the peer.
type Pipe struct {
	Events Events

	peer *Pipe
	in   *ypipe.Queue[*frame.Frame]
	out  *ypipe.Queue[*frame.Frame]

	hwmOut int

	conflate bool

	msgsWritten   atomic.Uint64
	msgsRead      atomic.Uint64
	peersMsgsRead atomic.Uint64
	inActive      atomic.Bool
	state         atomic.Int32
}

// NewPair builds the two halves of a Pipe, wiring a's out to b's in and
// vice versa, mirroring create_pipe_pair. hwmA/hwmB bound each direction
// independently. Flow control here tracks exact msgs_written/peers_msgs_read
// counters rather than libzmq's batched LWM-triggered resume notifications,
// so no separate low-water mark is needed: CheckWrite's comparison is exact
// on every call, not just after a batch of acks crosses a threshold.
func NewPair(hwmA, hwmB int, conflateA, conflateB bool) (a, b *Pipe) {
	qAB := ypipe.New[*frame.Frame]() // a writes, b reads
	qBA := ypipe.New[*frame.Frame]() // b writes, a reads

	a = &Pipe{in: qBA, out: qAB, hwmOut: hwmA, conflate: conflateA}
	b = &Pipe{in: qAB, out: qBA, hwmOut: hwmB, conflate: conflateB}
	a.inActive.Store(true)
	b.inActive.Store(true)
	a.peer = b
	b.peer = a
	return a, b
}

// CheckWrite reports whether Write would currently succeed without
// blocking (Testable Property 1: msgs_written - peers_msgs_read <= hwm_out).
func (p *Pipe) CheckWrite() bool {
	if p.hwmOut <= 0 {
		return true // unbounded
	}
	if p.state.Load() != int32(StateActive) {
		return false
	}
	outstanding := p.msgsWritten.Load() - p.peersMsgsRead.Load()
	return outstanding < uint64(p.hwmOut)
}

// Write enqueues f for the peer to read. more indicates another frame of
// the same multipart group follows; the group becomes visible to the peer
// atomically on the frame carrying more=false (Testable Property 3).
func (p *Pipe) Write(f *frame.Frame, more bool) error {
	if State(p.state.Load()) != StateActive {
		return ErrTerminated
	}
	if p.conflate && more {
		return ErrConflate
	}
	if !p.CheckWrite() {
		// Any earlier frames of this multipart group are still staged,
		// unflushed, in p.out (more=true skips Flush below) — discard them
		// so they don't survive to be flushed alongside a later, unrelated
		// group (§4.2 Back-pressure: "the outbound Y-Pipe is rolled back").
		p.out.DiscardStaged()
		return ErrWouldBlock
	}

	if more {
		f.Flags |= frame.FlagMore
	} else {
		f.Flags &^= frame.FlagMore
	}

	p.out.Write(f)
	if !more {
		p.out.Flush()
	}
	p.msgsWritten.Add(1)

	if p.peer != nil {
		p.peer.inActive.Store(true) // peer's in-queue just gained data worth checking again
		if p.peer.Events != nil {
			p.peer.Events.ReadActivated(p.peer)
		}
	}
	return nil
}

// Read dequeues the next frame without blocking. ok is false if nothing is
// ready, the pipe is terminating, or the dequeued item was a delimiter
// (consumed internally to drive the termination FSM).
func (p *Pipe) Read() (f *frame.Frame, ok bool) {
	if !p.inActive.Load() {
		return nil, false
	}
	st := State(p.state.Load())
	if st != StateActive && st != StateWaitingForDelimiter {
		return nil, false
	}

	v, has := p.in.TryRead()
	if !has {
		p.inActive.Store(false)
		return nil, false
	}

	if v.IsDelimiter() {
		p.processDelimiter()
		return nil, false
	}

	p.msgsRead.Add(1)
	if p.peer != nil {
		p.peer.notifyPeerRead()
	}
	return v, true
}

// notifyPeerRead runs on the writer half when its peer reads a frame,
// updating the writer's view of peers_msgs_read and waking anyone waiting
// for HWM headroom. Firing on every read (rather than only the edge where
// the writer was actually blocked) is a deliberate over-notify: cheap here
// since it is a direct method call, not a cross-thread wakeup to economise.
func (p *Pipe) notifyPeerRead() {
	p.peersMsgsRead.Add(1)
	if p.Events != nil {
		p.Events.WriteActivated(p)
	}
}

// Terminate begins closing this half. When delay is true (the common case),
// a delimiter is pushed so the peer learns no further data frames follow
// once it drains what is already queued; when false, queued-but-unread
// frames on the peer-visible side are abandoned immediately.
func (p *Pipe) Terminate(delay bool) {
	switch State(p.state.Load()) {
	case StateActive:
		if delay {
			p.out.Write(frame.Delimiter())
			p.out.Flush()
			if p.peer != nil {
				p.peer.inActive.Store(true)
			}
			p.state.Store(int32(StateWaitingForDelimiter))
		} else {
			p.state.Store(int32(StateTermAckSent))
			p.fireTerminated()
		}
	case StateDelimiterReceived:
		p.state.Store(int32(StateTermAckSent))
		p.fireTerminated()
	default:
		// already terminating
	}
}

// processDelimiter runs when Read pops the peer's delimiter frame (§4.2).
func (p *Pipe) processDelimiter() {
	switch State(p.state.Load()) {
	case StateActive:
		p.state.Store(int32(StateDelimiterReceived))
	case StateWaitingForDelimiter:
		p.rollback()
		p.state.Store(int32(StateTermAckSent))
		p.fireTerminated()
	default:
	}
}

// rollback discards an unflushed, not-yet-visible multipart group from out,
// the Pipe-rollback guarantee in §7 ("a failed send never partially
// transmits a multipart group").
func (p *Pipe) rollback() {
	p.out.DiscardStaged()
}

func (p *Pipe) fireTerminated() {
	if p.Events != nil {
		p.Events.Terminated(p)
	}
}

// State reports the current termination-FSM state.
func (p *Pipe) State() State { return State(p.state.Load()) }

// Hiccup is called by the owning session after a reconnect replaces the
// underlying transport: the socket pattern keeps this Pipe's identity
// (fair-queue position, ROUTER routing id) but is told to expect a data
// discontinuity, mirroring the HICCUP event in session_base.rs.
func (p *Pipe) Hiccup() {
	if p.Events != nil {
		p.Events.Hiccuped(p)
	}
}

// MsgsWritten, MsgsRead, PeersMsgsRead expose the raw counters used by
// property tests and by choose_io_thread-style load accounting.
func (p *Pipe) MsgsWritten() uint64   { return p.msgsWritten.Load() }
func (p *Pipe) MsgsRead() uint64      { return p.msgsRead.Load() }
func (p *Pipe) PeersMsgsRead() uint64 { return p.peersMsgsRead.Load() }
