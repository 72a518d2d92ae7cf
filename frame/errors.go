package frame

import "errors"

var (
	ErrShort  = errors.New("frame: too short")
	ErrLong   = errors.New("frame: too long")
	ErrGroup  = errors.New("frame: group label too long")
	ErrValue  = errors.New("frame: invalid value")
	ErrCmdLen = errors.New("frame: invalid command name length")
)
