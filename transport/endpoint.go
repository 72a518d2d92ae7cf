// Package transport implements §4.5's transport layer: the four address
// schemes (tcp, ipc, inproc, ws) a Socket's Connect/Bind can name, each
// resolved to a net.Listener/dial func pair that session.Session then
// drives an Engine over.
package transport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadEndpoint is returned by Parse for a malformed address.
var ErrBadEndpoint = errors.New("transport: malformed endpoint")

// Scheme names one of the four supported transports.
type Scheme string

const (
	TCP    Scheme = "tcp"
	IPC    Scheme = "ipc"
	Inproc Scheme = "inproc"
	WS     Scheme = "ws"
	WSS    Scheme = "wss"
)

// Endpoint is a parsed "scheme://address" connect/bind target (§4.5).
type Endpoint struct {
	Scheme  Scheme
	Address string // host:port for tcp/ws/wss, path for ipc, name for inproc
}

func (e Endpoint) String() string { return fmt.Sprintf("%s://%s", e.Scheme, e.Address) }

// Parse splits "scheme://address" the way every ZMTP endpoint string is
// written (spec.md §4.5 / §6's "connect/bind address string").
func Parse(s string) (Endpoint, error) {
	i := strings.Index(s, "://")
	if i < 0 {
		return Endpoint{}, fmt.Errorf("%w: %q has no scheme", ErrBadEndpoint, s)
	}
	scheme, addr := Scheme(strings.ToLower(s[:i])), s[i+3:]
	switch scheme {
	case TCP, IPC, Inproc, WS, WSS:
	default:
		return Endpoint{}, fmt.Errorf("%w: unknown scheme %q", ErrBadEndpoint, scheme)
	}
	if addr == "" {
		return Endpoint{}, fmt.Errorf("%w: %q has no address", ErrBadEndpoint, s)
	}
	return Endpoint{Scheme: scheme, Address: addr}, nil
}
