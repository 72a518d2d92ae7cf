package transport

import (
	"fmt"
	"net"

	"github.com/puzpuzpuz/xsync/v3"
)

// InprocRegistry is the process-local name -> listener table inproc://
// binds register into. A zctx.Context owns exactly one Registry and hands
// it to every Socket it creates, so inproc endpoints are only ever visible
// within one Context (§4.5). Bind and Connect race against each other from
// different Sockets' owning goroutines (§5), so the slot table is an
// xsync.MapOf rather than a plain map behind a mutex — the same concurrent
// dictionary socket.Socket.appMetadata uses for the same reason: state
// touched by more than one owning thread.
type InprocRegistry struct {
	slots *xsync.MapOf[string, *inprocSlot]
}

// inprocSlot is one inproc:// name's state: at most one bound listener, and
// any Connect calls that arrived before a matching Bind (§4.5's "pending
// connection queue").
type inprocSlot struct {
	listener *inprocListener
	pending  []chan net.Conn
}

// NewInprocRegistry returns an empty registry.
func NewInprocRegistry() *InprocRegistry {
	return &InprocRegistry{slots: xsync.NewMapOf[string, *inprocSlot]()}
}

type inprocListener struct {
	name     string
	accept   chan net.Conn
	closed   chan struct{}
	closeReg func()
}

func (l *inprocListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.accept:
		return c, nil
	case <-l.closed:
		return nil, fmt.Errorf("transport: inproc listener %q closed", l.name)
	}
}

func (l *inprocListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
		l.closeReg()
	}
	return nil
}

func (l *inprocListener) Addr() net.Addr { return inprocAddr(l.name) }

type inprocAddr string

func (a inprocAddr) Network() string { return "inproc" }
func (a inprocAddr) String() string  { return string(a) }

// Bind registers name, returning a net.Listener whose Accept receives one
// net.Conn per Connect(name) call made against this registry — including
// any Connect that arrived before this Bind (queued in the slot's pending
// list, handed off immediately here). The check-for-conflict and install
// happen inside one Compute call so a racing Bind/Bind on the same name
// never both succeed; the waiters it captures are drained with blocking
// sends afterward, outside the callback, since Compute holds an internal
// per-shard lock and must never block on one.
func (r *InprocRegistry) Bind(name string) (net.Listener, error) {
	l := &inprocListener{
		name:   name,
		accept: make(chan net.Conn, 16),
		closed: make(chan struct{}),
	}
	l.closeReg = func() { r.slots.Delete(name) }

	var conflict bool
	var waiters []chan net.Conn
	r.slots.Compute(name, func(old *inprocSlot, loaded bool) (*inprocSlot, bool) {
		if loaded && old.listener != nil {
			conflict = true
			return old, false
		}
		if loaded {
			waiters = old.pending
		}
		return &inprocSlot{listener: l}, false
	})
	if conflict {
		return nil, fmt.Errorf("transport: inproc address %q already in use", name)
	}

	for _, waiter := range waiters {
		client, server := net.Pipe()
		waiter <- client
		l.accept <- server
	}
	return l, nil
}

// Connect dials name, blocking until a Bind(name) has claimed (or later
// claims) it on this registry — inproc has no listen backlog to fail
// against, so an early Connect simply queues (§4.5's "pending connection
// queue"). The decision of whether a listener is already present, and the
// queuing when it isn't, happens inside one Compute call so a racing Bind
// can never miss this Connect's waiter; the actual net.Pipe()/channel send
// happens outside the callback.
func (r *InprocRegistry) Connect(name string) (net.Conn, error) {
	wait := make(chan net.Conn, 1)
	var listener *inprocListener
	r.slots.Compute(name, func(old *inprocSlot, loaded bool) (*inprocSlot, bool) {
		if loaded && old.listener != nil {
			listener = old.listener
			return old, false
		}
		slot := &inprocSlot{}
		if loaded {
			*slot = *old
		}
		slot.pending = append(slot.pending, wait)
		return slot, false
	})
	if listener != nil {
		client, server := net.Pipe()
		listener.accept <- server // blocks if Accept isn't keeping up; never silently dropped
		return client, nil
	}
	return <-wait, nil
}
