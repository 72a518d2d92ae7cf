package transport

import (
	"fmt"
	"net"
)

// Bind opens a net.Listener for ep. inproc needs reg (the owning Context's
// InprocRegistry); it is ignored for every other scheme.
func Bind(ep Endpoint, reg *InprocRegistry) (net.Listener, error) {
	switch ep.Scheme {
	case TCP:
		return Listen(ep.Address)
	case IPC:
		return ListenIPC(ep.Address)
	case Inproc:
		if reg == nil {
			return nil, fmt.Errorf("transport: inproc bind %q needs an InprocRegistry", ep.Address)
		}
		return reg.Bind(ep.Address)
	case WS, WSS:
		return ListenWS(ep.Address)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadEndpoint, ep.Scheme)
	}
}

// Connect dials ep, the counterpart to Bind.
func Connect(ep Endpoint, reg *InprocRegistry) (net.Conn, error) {
	switch ep.Scheme {
	case TCP:
		return Dial(ep.Address)
	case IPC:
		return DialIPC(ep.Address)
	case Inproc:
		if reg == nil {
			return nil, fmt.Errorf("transport: inproc connect %q needs an InprocRegistry", ep.Address)
		}
		return reg.Connect(ep.Address)
	case WS:
		return DialWS(ep.Address, false)
	case WSS:
		return DialWS(ep.Address, true)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadEndpoint, ep.Scheme)
	}
}
