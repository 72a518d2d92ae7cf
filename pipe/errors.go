package pipe

import "errors"

var (
	ErrWouldBlock = errors.New("pipe: would block (HWM reached)")
	ErrTerminated = errors.New("pipe: terminated")
	ErrConflate   = errors.New("pipe: CONFLATE incompatible with MORE")
)
