package zmtp

import (
	"github.com/zmtpfix/zmtpfix/frame"
)

type plainState int

const (
	plainStart plainState = iota
	plainWaitingForWelcome
	plainReadyToInitiate
	plainWaitingForInitiate
	plainWaitingForReady
	plainDone
	plainFailed
)

// PlainMechanism implements the PLAIN security mechanism (§4.4): a
// cleartext username/password HELLO/WELCOME/INITIATE/READY exchange.
// Grounded on the Rust port's plain_client.rs/plain_server.rs state
// machines, collapsed into one type parameterised by AsServer since both
// sides share the same command parsing.
type PlainMechanism struct {
	AsServer bool

	// client fields
	Username, Password string

	// server fields: Authenticate is called once with the received
	// credentials; returning false makes ProcessHandshakeCommand fail with
	// ErrCredential (no ERROR command is sent to the peer).
	Authenticate func(username, password string) bool
	SocketType   string
	UserProps    map[string]string

	state plainState
	meta  *frame.Metadata
}

func (m *PlainMechanism) Name() string { return "PLAIN" }

func (m *PlainMechanism) NextHandshakeCommand() (*frame.Frame, bool, error) {
	if m.AsServer {
		return m.nextServer()
	}
	return m.nextClient()
}

func (m *PlainMechanism) nextClient() (*frame.Frame, bool, error) {
	switch m.state {
	case plainStart:
		m.state = plainWaitingForWelcome

		body := make([]byte, 0, 2+len(m.Username)+len(m.Password))
		body = append(body, byte(len(m.Username)))
		body = append(body, m.Username...)
		body = append(body, byte(len(m.Password)))
		body = append(body, m.Password...)

		f := frame.New()
		f.Flags = frame.FlagCommand
		f.Command = "HELLO"
		f.SetBytes(body)
		return f, true, nil

	case plainReadyToInitiate:
		m.state = plainWaitingForReady
		f := readyFrame(m.initiateProps())
		f.Command = "INITIATE"
		return f, true, nil

	default:
		return nil, false, nil
	}
}

func (m *PlainMechanism) initiateProps() map[string]string {
	props := map[string]string{"Socket-Type": m.SocketType}
	for k, v := range m.UserProps {
		props[k] = v
	}
	return props
}

func (m *PlainMechanism) nextServer() (*frame.Frame, bool, error) {
	switch m.state {
	case plainWaitingForWelcome: // HELLO processed, send WELCOME
		m.state = plainWaitingForInitiate
		f := frame.New()
		f.Flags = frame.FlagCommand
		f.Command = "WELCOME"
		return f, true, nil
	default:
		return nil, false, nil
	}
}

func (m *PlainMechanism) ProcessHandshakeCommand(f *frame.Frame) error {
	switch f.Command {
	case "HELLO":
		return m.processHello(f)
	case "WELCOME":
		return m.processWelcome(f)
	case "INITIATE":
		return m.processInitiate(f)
	case "READY":
		return m.processReady(f)
	case "ERROR":
		m.state = plainFailed
		return ErrCredential
	default:
		m.state = plainFailed
		return ErrCommand
	}
}

func (m *PlainMechanism) processHello(f *frame.Frame) error {
	if !m.AsServer || m.state != plainStart {
		m.state = plainFailed
		return ErrHandshake
	}
	body := f.Bytes()
	if len(body) < 1 {
		m.state = plainFailed
		return ErrCommand
	}
	ulen := int(body[0])
	if len(body) < 1+ulen+1 {
		m.state = plainFailed
		return ErrCommand
	}
	username := string(body[1 : 1+ulen])
	body = body[1+ulen:]
	plen := int(body[0])
	if len(body) < 1+plen {
		m.state = plainFailed
		return ErrCommand
	}
	password := string(body[1 : 1+plen])

	if m.Authenticate != nil && !m.Authenticate(username, password) {
		m.state = plainFailed
		return ErrCredential
	}
	m.state = plainWaitingForWelcome
	return nil
}

func (m *PlainMechanism) processWelcome(f *frame.Frame) error {
	if m.AsServer || m.state != plainWaitingForWelcome {
		m.state = plainFailed
		return ErrHandshake
	}
	m.state = plainReadyToInitiate
	return nil
}

func (m *PlainMechanism) processInitiate(f *frame.Frame) error {
	if !m.AsServer || m.state != plainWaitingForInitiate {
		m.state = plainFailed
		return ErrHandshake
	}
	props, err := parseReadyBody(f.Bytes())
	if err != nil {
		m.state = plainFailed
		return err
	}
	m.meta = frame.NewMetadata()
	for k, v := range props {
		m.meta.Set(k, v)
	}
	m.state = plainDone
	return nil
}

func (m *PlainMechanism) processReady(f *frame.Frame) error {
	if m.AsServer || m.state != plainWaitingForReady {
		m.state = plainFailed
		return ErrHandshake
	}
	props, err := parseReadyBody(f.Bytes())
	if err != nil {
		m.state = plainFailed
		return err
	}
	m.meta = frame.NewMetadata()
	for k, v := range props {
		m.meta.Set(k, v)
	}
	m.state = plainDone
	return nil
}

func (m *PlainMechanism) Status() Status {
	switch m.state {
	case plainDone:
		return StatusReady
	case plainFailed:
		return StatusError
	default:
		return StatusHandshaking
	}
}

func (m *PlainMechanism) Metadata() *frame.Metadata { return m.meta }
