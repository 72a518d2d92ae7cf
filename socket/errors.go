// Package socket implements §4.3 Socket patterns: the public per-type
// handle applying fair-queue/load-balance/subscription/routing policy over
// a set of attached pipes, grounded on bgpfix/pipe.Pipe's Options/error
// idiom (pipe/errors.go, pipe/options.go).
package socket

import "errors"

// Error taxonomy from §6/§7, one sentinel per kind the way msg/errors.go
// and pipe/errors.go enumerate bgpfix's own error space.
var (
	ErrAgain            = errors.New("socket: operation would block")
	ErrInvalid          = errors.New("socket: invalid argument")
	ErrFSM              = errors.New("socket: operation invalid in current state")
	ErrProto            = errors.New("socket: protocol violation")
	ErrHostUnreach      = errors.New("socket: no route to destination identity")
	ErrTerm             = errors.New("socket: context terminated")
	ErrNotSupported     = errors.New("socket: operation not supported by this socket type")
	ErrAddrInUse        = errors.New("socket: address already in use")
	ErrAddrNotAvailable = errors.New("socket: address not available")
	ErrProtoNotSupported = errors.New("socket: unknown transport scheme")
)
