package reactor

import (
	"container/heap"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/mailbox"
)

// eventKind distinguishes the three callbacks a registered Handler can
// receive.
type eventKind int

const (
	eventIn eventKind = iota
	eventOut
	eventError
)

type event struct {
	handle Handle
	kind   eventKind
	err    error
}

// Reactor is the default Poller backend: one goroutine drains a mailbox,
// a timer heap and a buffered event channel, invoking Handler callbacks to
// completion one at a time — the single-threaded-loop guarantee in §5 ("a
// small pool of cooperative single-threaded reactors"). Readiness itself
// comes from each connection's own goroutine blocking in Read/Write (Go's
// netpoller already multiplexes those for us); that goroutine calls Notify
// to hand the event to this loop instead of invoking the Handler directly,
// so two handlers for different fds never run concurrently.
type Reactor struct {
	Log *zerolog.Logger

	name    string
	mbox    *mailbox.Mailbox
	events  chan event
	handles map[Handle]Handler
	conns   map[Handle]net.Conn
	nextID  uint64
	load    atomic.Int64

	timers   timerHeap
	timerAdd chan *timerEntry
	timerDel chan Handle

	stop chan struct{}
	done chan struct{}
}

// New returns a Reactor with its own mailbox, buffered for evBuf pending
// cross-goroutine events before Notify blocks.
func New(evBuf int) *Reactor {
	return &Reactor{
		mbox:     mailbox.New(64),
		events:   make(chan event, evBuf),
		handles:  make(map[Handle]Handler),
		conns:    make(map[Handle]net.Conn),
		timerAdd: make(chan *timerEntry),
		timerDel: make(chan Handle),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Mailbox exposes this reactor's command inbox so other threads can post
// ACTIVATE-READ / HICCUP / PIPE-TERM commands to objects living here.
func (r *Reactor) Mailbox() *mailbox.Mailbox { return r.mbox }

// Load returns the current load counter used by choose_io_thread (§4.5) to
// pick the least-loaded reactor among those an affinity mask permits.
func (r *Reactor) Load() int64 { return r.load.Load() }

func (r *Reactor) allocHandle() Handle {
	r.nextID++
	return Handle(r.nextID)
}

// AddConn registers conn under a fresh Handle and bumps the load counter.
// It does not itself read or write conn; callers drive their own
// goroutine around conn and call Notify when it observes readiness.
func (r *Reactor) AddConn(conn net.Conn, h Handler) Handle {
	handle := r.allocHandle()
	r.handles[handle] = h
	r.conns[handle] = conn
	r.load.Add(1)
	return handle
}

func (r *Reactor) RmConn(h Handle) {
	if _, ok := r.handles[h]; ok {
		delete(r.handles, h)
		delete(r.conns, h)
		r.load.Add(-1)
	}
}

// SetPollIn/ResetPollIn/SetPollOut/ResetPollOut are accepted for interface
// compatibility with Poller; the goroutine-per-conn backend has no
// separate readiness mask to toggle since a blocked Read/Write already is
// the wait, so these are no-ops here.
func (r *Reactor) SetPollIn(Handle)    {}
func (r *Reactor) ResetPollIn(Handle)  {}
func (r *Reactor) SetPollOut(Handle)   {}
func (r *Reactor) ResetPollOut(Handle) {}

// Notify hands an observed readiness event to the reactor loop for
// dispatch. Safe to call from any goroutine.
func (r *Reactor) Notify(h Handle, in bool, out bool, err error) {
	switch {
	case err != nil:
		r.events <- event{handle: h, kind: eventError, err: err}
	case in:
		r.events <- event{handle: h, kind: eventIn}
	case out:
		r.events <- event{handle: h, kind: eventOut}
	}
}

// AddTimer schedules h.InEvent to fire after ms milliseconds, tagged with
// id for CancelTimer matching (a reactor may host several timers with the
// same id for different owners).
func (r *Reactor) AddTimer(ms int, id int, h Handler) Handle {
	handle := r.allocHandle()
	te := &timerEntry{
		handle:   handle,
		id:       id,
		deadline: time.Now().Add(time.Duration(ms) * time.Millisecond),
		handler:  h,
	}
	r.load.Add(1)
	select {
	case r.timerAdd <- te:
	case <-r.done:
	}
	return handle
}

func (r *Reactor) CancelTimer(h Handle) {
	select {
	case r.timerDel <- h:
	case <-r.done:
	}
}

// Start launches the reactor's single loop goroutine.
func (r *Reactor) Start(name string) {
	r.name = name
	heap.Init(&r.timers)
	go r.loop()
}

func (r *Reactor) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reactor) loop() {
	defer close(r.done)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		r.rearm(timer)

		select {
		case <-r.stop:
			return

		case cmd := <-r.mbox.Chan():
			r.dispatchCommand(cmd)

		case ev := <-r.events:
			r.dispatchEvent(ev)

		case te := <-r.timerAdd:
			heap.Push(&r.timers, te)

		case h := <-r.timerDel:
			r.removeTimer(h)

		case <-timer.C:
			r.fireExpired()
		}
	}
}

func (r *Reactor) rearm(timer *time.Timer) {
	if len(r.timers) == 0 {
		return
	}
	d := time.Until(r.timers[0].deadline)
	if d < 0 {
		d = 0
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

func (r *Reactor) fireExpired() {
	now := time.Now()
	for len(r.timers) > 0 && !r.timers[0].deadline.After(now) {
		te := heap.Pop(&r.timers).(*timerEntry)
		r.load.Add(-1)
		te.handler.InEvent()
	}
}

func (r *Reactor) removeTimer(h Handle) {
	for i, te := range r.timers {
		if te.handle == h {
			heap.Remove(&r.timers, i)
			r.load.Add(-1)
			return
		}
	}
}

func (r *Reactor) dispatchEvent(ev event) {
	h, ok := r.handles[ev.handle] // retired-handle sentinel: skip if gone
	if !ok {
		return
	}
	switch ev.kind {
	case eventIn:
		h.InEvent()
	case eventOut:
		h.OutEvent()
	case eventError:
		h.ErrorEvent(ev.err)
	}
}

func (r *Reactor) dispatchCommand(cmd mailbox.Command) {
	if r.Log != nil {
		r.Log.Debug().Str("reactor", r.name).Str("op", cmd.Op.String()).Msg("mailbox command")
	}
	if obj, ok := cmd.Target.(mailbox.Object); ok {
		mailbox.Dispatch(obj, cmd)
	}
}
