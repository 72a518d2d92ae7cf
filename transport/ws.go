package transport

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn adapts a *websocket.Conn's message-oriented API to net.Conn's
// byte-stream contract so Engine can treat a ws:// connection exactly like
// a tcp:// one: each Write is sent as one binary WS message, and Read
// drains the current inbound WS message before asking gorilla for the
// next one (mirrors the other_examples websocket hub's NextWriter/
// ReadMessage pairing, generalised from message-at-a-time framing to a
// continuous byte stream).
type wsConn struct {
	*websocket.Conn
	reader     []byte
	readOffset int
}

func newWSConn(c *websocket.Conn) *wsConn { return &wsConn{Conn: c} }

func (c *wsConn) Read(p []byte) (int, error) {
	for c.readOffset >= len(c.reader) {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.reader = msg
		c.readOffset = 0
	}
	n := copy(p, c.reader[c.readOffset:])
	c.readOffset += n
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.Conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.Conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.Conn.SetWriteDeadline(t)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsListener adapts an http.Server accepting WS upgrades to net.Listener
// so it composes with the same Session.StartAccepted path tcp:// uses.
type wsListener struct {
	addr     net.Addr
	accept   chan net.Conn
	errs     chan error
	closed   chan struct{}
	httpSrv  *http.Server
	tcpLstn  net.Listener
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.accept:
		return c, nil
	case err := <-l.errs:
		return nil, err
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return l.tcpLstn.Close()
}

func (l *wsListener) Addr() net.Addr { return l.addr }

// ListenWS opens a TCP listener on addr and serves ws:// upgrades on it at
// path "/" (ZMTP over WebSocket has no further path convention; a
// reverse proxy in front is expected to route by host/path if needed).
func ListenWS(addr string) (net.Listener, error) {
	tcpLstn, err := net.Listen("tcp", normalizeWildcard(addr))
	if err != nil {
		return nil, err
	}
	l := &wsListener{
		addr:    tcpLstn.Addr(),
		accept:  make(chan net.Conn, 16),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
		tcpLstn: tcpLstn,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		c, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case l.accept <- newWSConn(c):
		case <-l.closed:
			c.Close()
		}
	})
	l.httpSrv = &http.Server{Handler: mux}
	go func() {
		if err := l.httpSrv.Serve(tcpLstn); err != nil {
			select {
			case l.errs <- err:
			default:
			}
		}
	}()
	return l, nil
}

// DialWS connects to a ws:// or wss:// peer at addr (a bare "host:port" or
// "host:port/path"; the scheme prefix is added here).
func DialWS(addr string, tls bool) (net.Conn, error) {
	scheme := "ws"
	if tls {
		scheme = "wss"
	}
	c, _, err := websocket.DefaultDialer.Dial(scheme+"://"+addr, nil)
	if err != nil {
		return nil, err
	}
	return newWSConn(c), nil
}
