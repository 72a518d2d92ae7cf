package zmtp

import (
	"strings"

	"github.com/zmtpfix/zmtpfix/frame"
)

// NullMechanism implements the NULL security mechanism (§4.4): no
// authentication, a bare READY/ERROR exchange carrying socket metadata.
// Grounded on the Rust port's NullMechanism state machine, simplified since
// this module carries no ZAP client of its own yet (Metadata.Get("Zap-Domain")
// is exposed for a caller-supplied ZAP handler to use instead).
type NullMechanism struct {
	SocketType string
	RoutingID  string
	UserProps  map[string]string

	sent     bool
	received bool
	status   Status
	meta     *frame.Metadata
	errMsg   string
}

func (m *NullMechanism) Name() string { return "NULL" }

func (m *NullMechanism) NextHandshakeCommand() (*frame.Frame, bool, error) {
	if m.sent {
		return nil, false, nil
	}
	m.sent = true

	props := map[string]string{"Socket-Type": m.SocketType}
	if m.RoutingID != "" {
		props["Identity"] = m.RoutingID
	}
	for k, v := range m.UserProps {
		props[k] = v
	}
	return readyFrame(props), true, nil
}

func (m *NullMechanism) ProcessHandshakeCommand(f *frame.Frame) error {
	if m.received {
		return ErrHandshake
	}
	m.received = true

	switch f.Command {
	case "READY":
		props, err := parseReadyBody(f.Bytes())
		if err != nil {
			m.status = StatusError
			return err
		}
		m.meta = frame.NewMetadata()
		for k, v := range props {
			m.meta.Set(k, v)
		}
		m.status = StatusReady
		return nil
	case "ERROR":
		body := f.Bytes()
		if len(body) < 1 {
			m.status = StatusError
			return ErrCommand
		}
		n := int(body[0])
		if len(body) < 1+n {
			m.status = StatusError
			return ErrCommand
		}
		m.errMsg = string(body[1 : 1+n])
		m.status = StatusError
		return ErrCredential
	default:
		m.status = StatusError
		return ErrCommand
	}
}

func (m *NullMechanism) Status() Status { return m.status }

func (m *NullMechanism) Metadata() *frame.Metadata { return m.meta }

// ErrorReason returns the reason carried by a received ERROR command, if any.
func (m *NullMechanism) ErrorReason() string { return strings.TrimSpace(m.errMsg) }
