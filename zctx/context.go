// Package zctx implements §4.5's Context: the process-wide object that owns
// the I/O reactor pool, the inproc address registry, and every Socket
// created against it, and that Terminate waits on for a clean shutdown.
package zctx

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/metrics"
	"github.com/zmtpfix/zmtpfix/reactor"
	"github.com/zmtpfix/zmtpfix/session"
	"github.com/zmtpfix/zmtpfix/socket"
	"github.com/zmtpfix/zmtpfix/transport"
	"github.com/zmtpfix/zmtpfix/zmtp"
)

// Context owns the I/O thread pool (one Reactor per Config.IOThreads,
// chosen round-robin-by-load the way §4.5 describes choose_io_thread),
// the inproc registry every inproc:// Bind/Connect on its sockets shares,
// and the Reaper that Terminate drains.
type Context struct {
	Log *zerolog.Logger

	cfg     Config
	io      []*reactor.Reactor
	inproc  *transport.InprocRegistry
	reaper  *Reaper
	stopCfg chan struct{}

	mu        sync.Mutex
	listeners []net.Listener
	sessions  []*session.Session
	closed    bool
}

// New starts cfg.IOThreads reactors and returns a ready Context.
func New(cfg Config, log *zerolog.Logger) *Context {
	if cfg.IOThreads <= 0 {
		cfg = DefaultConfig
	}
	c := &Context{
		Log:     log,
		cfg:     cfg,
		inproc:  transport.NewInprocRegistry(),
		reaper:  NewReaper(),
		stopCfg: make(chan struct{}),
	}
	for i := 0; i < cfg.IOThreads; i++ {
		name := fmt.Sprintf("io-%d", i)
		r := reactor.New(64)
		r.Log = log
		r.Start(name)
		c.io = append(c.io, r)
	}
	go c.sampleLoad()
	return c
}

// sampleLoad periodically exports each reactor's Load() to the
// zmtpfix_reactor_load gauge and every live Session's Pipe backlog to the
// zmtpfix_pipe_backlog gauge, stopping once Terminate closes stopCfg.
func (c *Context) sampleLoad() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	c.sample()
	for {
		select {
		case <-ticker.C:
			c.sample()
		case <-c.stopCfg:
			return
		}
	}
}

func (c *Context) sample() {
	for i, r := range c.io {
		metrics.ObserveReactorLoad(fmt.Sprintf("io-%d", i), r.Load())
	}
	c.mu.Lock()
	sessions := c.sessions
	c.mu.Unlock()
	for _, sess := range sessions {
		metrics.ObservePipeBacklog(sess.PipeID(), sess.Pipe())
	}
}

// WatchConfigFile reloads IOThreads-independent settings (currently just
// Linger) from path on every write; changing IOThreads at runtime would
// require spinning up/tearing down reactors mid-flight, which §4.5 leaves
// to a restart rather than a hot reload.
func (c *Context) WatchConfigFile(path string) error {
	return WatchConfig(path, c.Log, c.stopCfg, func(cfg Config) {
		c.mu.Lock()
		c.cfg.Linger = cfg.Linger
		c.mu.Unlock()
	})
}

// ioThread returns the least-loaded reactor (§4.5's choose_io_thread).
func (c *Context) ioThread() *reactor.Reactor {
	best := c.io[0]
	for _, r := range c.io[1:] {
		if r.Load() < best.Load() {
			best = r
		}
	}
	return best
}

// NewSocket constructs a Socket of typ with opts against this Context.
func (c *Context) NewSocket(typ socket.Type, opts socket.Options) *socket.Socket {
	if opts.Logger == nil {
		opts.Logger = c.Log
	}
	return socket.New(typ, opts)
}

// mechanism builds a fresh zmtp.Mechanism for one connection attempt from a
// Socket's Options (Mechanism is stateful/single-use, so every dial/accept
// needs its own instance).
func mechanism(typ socket.Type, opts socket.Options, asServer bool) zmtp.Mechanism {
	switch opts.Mechanism {
	case "PLAIN":
		return &zmtp.PlainMechanism{
			AsServer:   asServer,
			Username:   opts.PlainUsername,
			Password:   opts.PlainPassword,
			SocketType: typ.String(),
			Authenticate: func(u, p string) bool {
				return u == opts.PlainUsername && p == opts.PlainPassword
			},
		}
	default:
		return &zmtp.NullMechanism{SocketType: typ.String(), RoutingID: string(opts.RoutingID)}
	}
}

func transformFor(typ socket.Type) session.Transform {
	switch typ {
	case socket.Radio:
		return session.NewRadioTransform()
	case socket.Dish:
		return session.NewDishTransform()
	default:
		return nil
	}
}

// Bind opens ep and, for every accepted connection, starts a Session
// wrapping sock (§4.5's passive/"server" role). Returns the net.Listener so
// the caller can Close it to stop accepting (Terminate also closes every
// listener it opened).
func (c *Context) Bind(sock *socket.Socket, addr string) (net.Listener, error) {
	ep, err := transport.Parse(addr)
	if err != nil {
		return nil, err
	}
	lstn, err := transport.Bind(ep, c.inproc)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, lstn)
	c.mu.Unlock()

	go c.acceptLoop(lstn, sock)
	return lstn, nil
}

func (c *Context) trackSession(sess *session.Session) {
	c.mu.Lock()
	c.sessions = append(c.sessions, sess)
	c.mu.Unlock()
}

func (c *Context) acceptLoop(lstn net.Listener, sock *socket.Socket) {
	for {
		conn, err := lstn.Accept()
		if err != nil {
			return
		}
		react := c.ioThread()
		sess := session.New(sock, nil, react, transformFor(sock.Type), c.Log)
		c.reaper.Add(sess)
		c.trackSession(sess)
		sess.OnTerminated = func() { c.reaper.Done(sess) }
		sess.StartAccepted(conn, session.EngineConfig{
			AsServer:         true,
			Mechanism:        mechanism(sock.Type, sock.Options, true),
			HeartbeatIvl:     sock.Options.HeartbeatIvl,
			HeartbeatTTL:     sock.Options.HeartbeatTTL,
			HeartbeatTimeout: sock.Options.HeartbeatTimeout,
		})
	}
}

// Connect dials ep and starts a reconnecting Session wrapping sock (§4.5's
// active/"client" role, with Session.StartDialled driving the
// connect/backoff loop on disconnect).
func (c *Context) Connect(sock *socket.Socket, addr string) error {
	ep, err := transport.Parse(addr)
	if err != nil {
		return err
	}
	react := c.ioThread()
	sess := session.New(sock, sock.Options.ConnectRoutingID, react, transformFor(sock.Type), c.Log)
	c.reaper.Add(sess)
	c.trackSession(sess)
	sess.OnTerminated = func() { c.reaper.Done(sess) }
	sess.StartDialled(
		func() (net.Conn, error) { return transport.Connect(ep, c.inproc) },
		func() session.EngineConfig {
			return session.EngineConfig{
				AsServer:         false,
				Mechanism:        mechanism(sock.Type, sock.Options, false),
				HeartbeatIvl:     sock.Options.HeartbeatIvl,
				HeartbeatTTL:     sock.Options.HeartbeatTTL,
				HeartbeatTimeout: sock.Options.HeartbeatTimeout,
			}
		},
	)
	return nil
}

// Terminate closes every listener this Context opened, stops the config
// watcher, and waits for every Session to finish unwinding before stopping
// the I/O reactors (Testable Property 6: no dangling goroutines survive).
func (c *Context) Terminate() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	listeners := c.listeners
	sessions := c.sessions
	c.mu.Unlock()

	close(c.stopCfg)
	for _, l := range listeners {
		l.Close()
	}
	for _, s := range sessions {
		s.Close()
	}
	c.reaper.Wait()
	for _, r := range c.io {
		r.Stop()
	}
}
