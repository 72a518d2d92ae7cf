package zmtp

import "github.com/zmtpfix/zmtpfix/frame"

// CurveMechanism is a placeholder for the CurveZMQ handshake (HELLO/WELCOME/
// INITIATE/READY over a Curve25519 + XSalsa20-Poly1305 box, per the original
// curve_mechanism_base.rs/curve_client.rs/curve_server.rs state machines).
// The full exchange needs a vetted Curve25519/NaCl box implementation the
// example pack does not carry (see DESIGN.md); this type satisfies the
// Mechanism interface so Engine can select it by name and fail the
// handshake cleanly with ErrMechanism rather than silently proceeding
// insecurely.
type CurveMechanism struct {
	ServerKey, PublicKey, SecretKey [32]byte
	AsServer                        bool
}

func (m *CurveMechanism) Name() string { return "CURVE" }

func (m *CurveMechanism) NextHandshakeCommand() (*frame.Frame, bool, error) {
	return nil, false, ErrMechanism
}

func (m *CurveMechanism) ProcessHandshakeCommand(*frame.Frame) error {
	return ErrMechanism
}

func (m *CurveMechanism) Status() Status { return StatusError }

func (m *CurveMechanism) Metadata() *frame.Metadata { return nil }

// GssapiMechanism is a placeholder for the GSSAPI security mechanism
// (gssapi_client.rs/gssapi_server.rs), which needs a Kerberos/SPNEGO
// binding outside this module's dependency set.
type GssapiMechanism struct {
	ServicePrincipal string
	AsServer         bool
}

func (m *GssapiMechanism) Name() string { return "GSSAPI" }

func (m *GssapiMechanism) NextHandshakeCommand() (*frame.Frame, bool, error) {
	return nil, false, ErrMechanism
}

func (m *GssapiMechanism) ProcessHandshakeCommand(*frame.Frame) error {
	return ErrMechanism
}

func (m *GssapiMechanism) Status() Status { return StatusError }

func (m *GssapiMechanism) Metadata() *frame.Metadata { return nil }
