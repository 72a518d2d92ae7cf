package mailbox

import "errors"

// ErrClosed is returned by Send once the mailbox has been closed.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox is a many-producer/single-consumer command queue. The channel
// itself is the signaller: a reactor blocks in a select on Chan() instead
// of polling a separate eventfd.
type Mailbox struct {
	ch     chan Command
	closed chan struct{}
}

// New returns a Mailbox buffered to hold capacity pending commands before
// Send blocks.
func New(capacity int) *Mailbox {
	return &Mailbox{
		ch:     make(chan Command, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues cmd, blocking if the mailbox is full, until ctx-like
// cancellation isn't needed here since every sender in this library already
// runs on a goroutine that can afford to block briefly; TrySend exists for
// callers that must not.
func (m *Mailbox) Send(cmd Command) error {
	select {
	case <-m.closed:
		return ErrClosed
	default:
	}
	select {
	case m.ch <- cmd:
		return nil
	case <-m.closed:
		return ErrClosed
	}
}

// TrySend enqueues cmd without blocking, reporting false if the mailbox is
// full or closed.
func (m *Mailbox) TrySend(cmd Command) bool {
	select {
	case <-m.closed:
		return false
	default:
	}
	select {
	case m.ch <- cmd:
		return true
	default:
		return false
	}
}

// Chan exposes the receive side for use in a reactor's select loop.
func (m *Mailbox) Chan() <-chan Command {
	return m.ch
}

// Close stops further sends; queued commands already in the channel buffer
// remain readable until drained.
func (m *Mailbox) Close() {
	select {
	case <-m.closed:
	default:
		close(m.closed)
	}
}
