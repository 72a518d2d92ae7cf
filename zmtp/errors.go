package zmtp

import "errors"

var (
	ErrSignature  = errors.New("zmtp: invalid signature")
	ErrMechanism  = errors.New("zmtp: mechanism name mismatch")
	ErrVersion    = errors.New("zmtp: unsupported version")
	ErrHandshake  = errors.New("zmtp: handshake out of order")
	ErrCredential = errors.New("zmtp: credential rejected")
	ErrCommand    = errors.New("zmtp: malformed command")
)
