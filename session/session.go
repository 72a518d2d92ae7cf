// Package session implements §4.4's Session + Engine: the per-connection
// object pinned to a single I/O thread that owns exactly one Engine and
// bridges it to the Pipe pair reaching a Socket.
package session

import (
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/mailbox"
	"github.com/zmtpfix/zmtpfix/metrics"
	"github.com/zmtpfix/zmtpfix/pipe"
	"github.com/zmtpfix/zmtpfix/reactor"
	"github.com/zmtpfix/zmtpfix/socket"
)

const reconnectTimerID = 2

// Session owns one Engine and the Pipe half reaching sock (§4.4). It
// implements pipe.Events for that half and mailbox.Object so that both
// pipe-driven notifications (fired on whatever goroutine called
// Socket.Send) and Reactor-delivered commands funnel through the owning
// Reactor's single mailbox instead of touching Session state off its own
// thread (§5: "cross-thread communication is only through mailbox
// commands").
type Session struct {
	Log   *zerolog.Logger
	React *reactor.Reactor

	// OnTerminated, if set, fires exactly once when this Session's
	// ProcessTerm runs (the owning Socket detached it, or an accepted
	// connection that will never reconnect closed) — a Context's Reaper
	// uses this to know when it is safe to stop waiting on this Session.
	OnTerminated func()

	sock *socket.Socket
	pipe *pipe.Pipe

	engine    *Engine
	transform Transform
	hello     *helloMsgTransform

	dial  func() (net.Conn, error) // nil for an accepted (non-reconnecting) session
	cfgFn func() EngineConfig

	backoff Backoff
	closed  bool
}

// New wires a fresh Pipe pair between sock and a new Session: sock gets
// one half immediately (AttachPipe), the Session keeps the other.
// routingID is forwarded to sock.AttachPipe verbatim (consulted only by
// ROUTER-style patterns). transform applies the socket type's wire-level
// quirk (nil defaults to identityTransform).
func New(sock *socket.Socket, routingID []byte, react *reactor.Reactor, transform Transform, log *zerolog.Logger) *Session {
	if transform == nil {
		transform = identityTransform{}
	}
	// sessionHalf writes inbound-from-wire frames toward the Socket, so its
	// outstanding-write bound is the Socket's *receive* HWM; socketHalf
	// writes app-sent frames toward the wire, bounded by the *send* HWM.
	sessionHalf, socketHalf := pipe.NewPair(sock.Options.HWMRcv, sock.Options.HWMSnd, sock.Options.Conflate, sock.Options.Conflate)

	s := &Session{Log: log, React: react, sock: sock, pipe: sessionHalf, transform: transform}
	sessionHalf.Events = s
	if hm, ok := transform.(*helloMsgTransform); ok {
		s.hello = hm
	}
	s.backoff = Backoff{Ivl: sock.Options.ReconnectIvl, IvlMax: sock.Options.ReconnectIvlMax}

	sock.AttachPipe(socketHalf, routingID)
	return s
}

// StartAccepted wraps an already-accepted connection: no reconnect is
// attempted if it fails (§4.4: "terminates if it was accepted").
func (s *Session) StartAccepted(conn net.Conn, cfg EngineConfig) {
	s.startEngine(conn, cfg)
}

// StartDialled begins the connect-and-reconnect lifecycle for an
// application-initiated connection. cfgFn is called fresh on every
// attempt since zmtp.Mechanism is a stateful, single-use handshake driver.
func (s *Session) StartDialled(dial func() (net.Conn, error), cfgFn func() EngineConfig) {
	s.dial = dial
	s.cfgFn = cfgFn
	s.connectLoop()
}

func (s *Session) connectLoop() {
	if s.closed {
		return
	}
	conn, err := s.dial()
	if err != nil {
		s.scheduleRetry()
		return
	}
	s.startEngine(conn, s.cfgFn())
}

func (s *Session) scheduleRetry() {
	if s.closed || s.backoff.Stop() {
		s.pipe.Terminate(true)
		return
	}
	delay := s.backoff.Next()
	metrics.SessionReconnecting(s.sock.Type.String())
	s.React.AddTimer(int(delay/time.Millisecond), reconnectTimerID, timerFunc(s.connectLoop))
}

func (s *Session) startEngine(conn net.Conn, cfg EngineConfig) {
	userOnReady := cfg.OnReady
	cfg.OnReady = func(meta *frame.Metadata) {
		s.backoff.Connected()
		if userOnReady != nil {
			userOnReady(meta)
		}
		if s.hello != nil {
			if frames := s.hello.Hello(); frames != nil {
				_ = s.engine.SendMessage(frames)
			}
		}
	}
	cfg.OnFrames = func(parts []*frame.Frame) {
		s.deliverToPipe(s.transform.Inbound(parts))
	}
	cfg.OnClose = s.onEngineClosed

	s.engine = NewEngine(conn, s.React, cfg, s.Log)
	s.engine.Start()
}

func (s *Session) deliverToPipe(parts []*frame.Frame) {
	for i, f := range parts {
		more := i < len(parts)-1
		if err := s.pipe.Write(f, more); err != nil {
			return // HWM/terminated: dropping here mirrors the Pattern's own lossy paths
		}
	}
}

// onEngineClosed runs on the reactor thread (Engine's closeWith calls it
// directly from InEvent/ErrorEvent/readLoop's Notify-driven path).
// Accepted sessions terminate outright; dialled sessions call Hiccup on the
// surviving Pipe half and schedule a reconnect. Hiccup only fires that
// half's Hiccuped callback, which Session implements as a no-op: frames
// already buffered in either direction are not discarded.
func (s *Session) onEngineClosed(error) {
	if s.closed {
		return
	}
	if s.dial == nil {
		s.pipe.Terminate(true)
		return
	}
	s.pipe.Hiccup()
	s.scheduleRetry()
}

// pipe.Events for the Session-owned half: both callbacks only post a
// command to the Reactor's mailbox since they may run on an arbitrary
// caller's goroutine (Socket.Send's), never touching Engine/Pipe state
// directly.
func (s *Session) ReadActivated(*pipe.Pipe)  { s.post(mailbox.OpActivateRead) }
func (s *Session) WriteActivated(*pipe.Pipe) { s.post(mailbox.OpActivateWrite) }
func (s *Session) Hiccuped(*pipe.Pipe)       {}
func (s *Session) Terminated(*pipe.Pipe)     { s.post(mailbox.OpTerm) }

// Close requests this Session terminate: the engine (if any) is closed and
// no further reconnect is attempted, whatever Backoff would otherwise have
// allowed. Safe to call from any goroutine.
func (s *Session) Close() { s.post(mailbox.OpTerm) }

// Pipe returns the Session-owned Pipe half, for callers (zctx's load
// sampler) that export its backlog as a metric. Read-only use only: writes
// must go through the Reactor-posted path like everything else in §5.
func (s *Session) Pipe() *pipe.Pipe { return s.pipe }

// PipeID names this Session's Pipe for metrics labeling: the owning
// socket's type plus the Session's address disambiguates sessions sharing
// a socket (every fan-out/fan-in connection gets its own Pipe pair).
func (s *Session) PipeID() string {
	return fmt.Sprintf("%s-%p", s.sock.Type.String(), s)
}

func (s *Session) post(op mailbox.Op) {
	if s.React == nil {
		return
	}
	s.React.Mailbox().TrySend(mailbox.Command{Op: op, Target: s})
}

// pumpOutbound drains every complete multipart group currently queued in
// the Pipe and pushes it to the wire, applying the Transform first.
// Invoked only from ProcessActivateRead, i.e. only on the reactor thread.
func (s *Session) pumpOutbound() {
	if s.engine == nil || !s.engine.HandshakeDone() {
		return
	}
	for {
		var group []*frame.Frame
		for {
			f, ok := s.pipe.Read()
			if !ok {
				return
			}
			group = append(group, f)
			if !f.Flags.Has(frame.FlagMore) {
				break
			}
		}
		if err := s.engine.SendMessage(s.transform.Outbound(group)); err != nil {
			return
		}
	}
}

// mailbox.Object: Session is pinned to React the way every owned object in
// §5 is pinned to exactly one I/O thread.
func (s *Session) ProcessPlug(mailbox.Command) {}
func (s *Session) ProcessOwn(mailbox.Command)  {}
func (s *Session) ProcessTerm(mailbox.Command) {
	s.closed = true
	if s.engine != nil {
		s.engine.Close()
	}
	if s.OnTerminated != nil {
		s.OnTerminated()
	}
}
func (s *Session) ProcessActivateRead(mailbox.Command)  { s.pumpOutbound() }
func (s *Session) ProcessActivateWrite(mailbox.Command) {}
func (s *Session) ProcessHiccup(mailbox.Command)        {}
func (s *Session) ProcessPipeTerm(mailbox.Command)      { s.ProcessTerm(mailbox.Command{}) }
func (s *Session) ProcessPipeTermAck(mailbox.Command)   {}
func (s *Session) ProcessAttach(mailbox.Command)        {}
func (s *Session) ProcessBind(mailbox.Command)          {}
func (s *Session) ProcessSeqnum(mailbox.Command)        {}
func (s *Session) ProcessConnFailed(mailbox.Command)    {}
func (s *Session) ProcessPipeHWM(mailbox.Command)       {}
func (s *Session) ProcessPipePeerStats(mailbox.Command) {}
