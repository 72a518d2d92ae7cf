package session

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/reactor"
	"github.com/zmtpfix/zmtpfix/zmtp"
)

const heartbeatTimerID = 1

// timerFunc adapts a plain func to reactor.Handler for one-shot timers
// that only ever fire InEvent, the way Engine's heartbeat and Session's
// reconnect delay schedule themselves.
type timerFunc func()

func (f timerFunc) InEvent()       { f() }
func (timerFunc) OutEvent()        {}
func (timerFunc) ErrorEvent(error) {}

// EngineConfig carries everything Engine needs to drive one connection,
// assembled by Session from socket.Options before each connect attempt (a
// fresh Mechanism is required per attempt since Mechanism is stateful).
type EngineConfig struct {
	AsServer  bool
	Mechanism zmtp.Mechanism

	HeartbeatIvl     time.Duration
	HeartbeatTTL     time.Duration
	HeartbeatTimeout time.Duration

	// OnReady fires once the handshake completes, carrying the peer's
	// negotiated metadata (nil for a version-down v1/v2 peer, which skips
	// the security handshake entirely).
	OnReady func(meta *frame.Metadata)
	// OnFrames delivers each decoded, post-handshake multipart group.
	OnFrames func(parts []*frame.Frame)
	// OnClose fires exactly once, whatever the reason; err is nil for a
	// clean close initiated by the owning Session.
	OnClose func(err error)
}

// Engine drives the ZMTP greeting, security handshake, and post-handshake
// frame pump for one net.Conn (§4.4). It implements reactor.Handler so its
// owning Reactor dispatches readiness to it on that reactor's single
// goroutine (§5: "within one loop iteration handlers run to completion and
// must never block"); a dedicated reader goroutine is the only thing that
// ever touches conn.Read, handing the raw bytes it reads across through inbox and
// calling Notify instead of invoking decode logic off that goroutine
// itself, mirroring the split reactor.Reactor's own doc comments describe
// ("that goroutine calls Notify to hand the event to this loop instead of
// invoking the Handler directly") and that reactor/reactor_test.go exercises.
type Engine struct {
	Log *zerolog.Logger

	conn   net.Conn
	r      *reactor.Reactor
	handle reactor.Handle
	cfg    EngineConfig

	dec zmtp.Decoder
	enc zmtp.Encoder

	inbox chan []byte
	done  chan struct{}

	greetOut   zmtp.Greeting
	greetInBuf []byte
	greetDone  bool

	handshakeDone bool
	group         []*frame.Frame

	writeMu sync.Mutex

	heartbeatTimer reactor.Handle
	awaitingPong   bool

	closeOnce sync.Once
}

// NewEngine builds an Engine for conn, registered on r once Start is
// called.
func NewEngine(conn net.Conn, r *reactor.Reactor, cfg EngineConfig, log *zerolog.Logger) *Engine {
	e := &Engine{
		conn:  conn,
		r:     r,
		cfg:   cfg,
		Log:   log,
		inbox: make(chan []byte, 16),
		done:  make(chan struct{}),
	}
	e.greetOut = *zmtp.Default(cfg.Mechanism.Name(), cfg.AsServer)
	return e
}

// Start registers conn with the reactor, launches the reader goroutine and
// writes the greeting.
func (e *Engine) Start() {
	e.handle = e.r.AddConn(e.conn, e)
	go e.readLoop()
	e.writeMu.Lock()
	_, _ = e.greetOut.WriteTo(e.conn)
	e.writeMu.Unlock()
}

// HandshakeDone reports whether user frames may now flow.
func (e *Engine) HandshakeDone() bool { return e.handshakeDone }

func (e *Engine) readLoop() {
	buf := make([]byte, 65536)
	for {
		n, err := e.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case e.inbox <- chunk:
				e.r.Notify(e.handle, true, false, nil)
			case <-e.done:
				return
			}
		}
		if err != nil {
			select {
			case <-e.done:
			default:
				e.r.Notify(e.handle, false, false, err)
			}
			return
		}
	}
}

// InEvent runs on the reactor thread: drain every chunk queued since the
// last call, decoding as much as is available.
func (e *Engine) InEvent() {
	for {
		select {
		case chunk := <-e.inbox:
			e.onData(chunk)
		default:
			return
		}
	}
}

// OutEvent is unused: writes happen synchronously under writeMu from
// whatever goroutine calls SendMessage, not poll-driven here (see
// Session.pumpOutbound) — Go's buffered conn.Write doesn't need a separate
// writability wait the way a raw nonblocking fd would.
func (e *Engine) OutEvent() {}

func (e *Engine) ErrorEvent(err error) { e.closeWith(err) }

func (e *Engine) onData(chunk []byte) {
	if !e.greetDone {
		e.greetInBuf = append(e.greetInBuf, chunk...)
		if len(e.greetInBuf) < zmtp.GreetingLen {
			return
		}
		var g zmtp.Greeting
		if err := g.FromBytes(e.greetInBuf); err != nil {
			e.closeWith(err)
			return
		}
		rest := e.greetInBuf[zmtp.GreetingLen:]
		e.greetInBuf = nil
		e.greetDone = true

		if g.Major < 3 {
			// version-down (§4.4): no security handshake, frames flow as
			// soon as the greeting is exchanged.
			e.handshakeDone = true
			if e.cfg.OnReady != nil {
				e.cfg.OnReady(nil)
			}
		} else if err := e.sendHandshake(); err != nil {
			e.closeWith(err)
			return
		}

		if len(rest) > 0 {
			e.decodeAndDispatch(rest)
		}
		return
	}
	e.decodeAndDispatch(chunk)
}

func (e *Engine) decodeAndDispatch(b []byte) {
	_, _ = e.dec.Write(b)
	for {
		f, ok := e.dec.Next()
		if !ok {
			return
		}
		if !e.handshakeDone {
			e.onHandshakeFrame(f)
			continue
		}
		e.onUserFrame(f)
	}
}

func (e *Engine) sendHandshake() error {
	for {
		f, ok, err := e.cfg.Mechanism.NextHandshakeCommand()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := e.writeFrame(f); err != nil {
			return err
		}
	}
}

func (e *Engine) onHandshakeFrame(f *frame.Frame) {
	if err := e.cfg.Mechanism.ProcessHandshakeCommand(f); err != nil {
		e.closeWith(err)
		return
	}
	switch e.cfg.Mechanism.Status() {
	case zmtp.StatusReady:
		e.handshakeDone = true
		if e.cfg.OnReady != nil {
			e.cfg.OnReady(e.cfg.Mechanism.Metadata())
		}
		if e.cfg.HeartbeatIvl > 0 {
			e.resetHeartbeatDeadline()
		}
	case zmtp.StatusError:
		e.closeWith(zmtp.ErrCredential)
	default:
		if err := e.sendHandshake(); err != nil {
			e.closeWith(err)
		}
	}
}

func (e *Engine) onUserFrame(f *frame.Frame) {
	e.resetHeartbeatDeadline()
	if f.Flags.Has(frame.FlagCommand) {
		switch f.Command {
		case "PING":
			if _, ctx, err := zmtp.ParsePing(f); err == nil {
				_ = e.writeFrame(zmtp.Pong(ctx))
			}
		case "PONG":
			e.awaitingPong = false
		}
		return
	}
	e.group = append(e.group, f)
	if !f.Flags.Has(frame.FlagMore) {
		parts := e.group
		e.group = nil
		if e.cfg.OnFrames != nil {
			e.cfg.OnFrames(parts)
		}
	}
}

func (e *Engine) writeFrame(f *frame.Frame) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := e.enc.WriteFrame(e.conn, f)
	return err
}

// SendMessage writes a complete multipart group to the wire. Safe to call
// from any goroutine; Session only calls it once the handshake is done.
func (e *Engine) SendMessage(parts []*frame.Frame) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := e.enc.WriteMessage(e.conn, parts)
	return err
}

func (e *Engine) resetHeartbeatDeadline() {
	if e.cfg.HeartbeatIvl <= 0 {
		return
	}
	if e.heartbeatTimer != 0 {
		e.r.CancelTimer(e.heartbeatTimer)
	}
	e.heartbeatTimer = e.r.AddTimer(int(e.cfg.HeartbeatIvl/time.Millisecond), heartbeatTimerID, timerFunc(e.onHeartbeatTick))
}

func (e *Engine) onHeartbeatTick() {
	if e.awaitingPong {
		e.closeWith(ErrHeartbeatTimeout)
		return
	}
	ttl := uint16(e.cfg.HeartbeatTTL / (100 * time.Millisecond))
	if err := e.writeFrame(zmtp.Ping(ttl, nil)); err != nil {
		e.closeWith(err)
		return
	}
	e.awaitingPong = true
	e.heartbeatTimer = e.r.AddTimer(int(e.cfg.HeartbeatTimeout/time.Millisecond), heartbeatTimerID, timerFunc(e.onHeartbeatTick))
}

func (e *Engine) closeWith(err error) {
	e.closeOnce.Do(func() {
		if e.Log != nil && err != nil {
			e.Log.Debug().Err(err).Msg("engine closed")
		}
		close(e.done)
		e.r.RmConn(e.handle)
		if e.heartbeatTimer != 0 {
			e.r.CancelTimer(e.heartbeatTimer)
		}
		_ = e.conn.Close()
		if e.cfg.OnClose != nil {
			e.cfg.OnClose(err)
		}
	})
}

// Close terminates the engine from the owning Session's side (Pipe
// termination, linger expiry, or a forced reconnect).
func (e *Engine) Close() { e.closeWith(nil) }
