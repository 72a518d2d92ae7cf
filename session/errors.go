package session

import "errors"

var (
	ErrHeartbeatTimeout = errors.New("session: no PONG within heartbeat_timeout")
	ErrHandshakeTimeout = errors.New("session: handshake did not complete within handshake_ivl")
	ErrClosed           = errors.New("session: closed")
)
