package socket

import "github.com/zmtpfix/zmtpfix/frame"

// Pipe is the narrow view a Pattern needs of an attached pipe: enough to
// read/write frames and identify the peer, without depending on the pipe
// package's termination/HWM internals directly (those are driven by
// Socket, not by the Pattern).
type Pipe interface {
	Write(f *frame.Frame, more bool) error
	Read() (*frame.Frame, bool)
	CheckWrite() bool
	Terminate(delay bool)
}

// Pattern is the per-type policy object every socket type plugs in behind
// (§4.3): "all patterns share the same attach_pipe / pipe_terminated /
// read_activated / write_activated / send / recv / has_in / has_out
// interface."
type Pattern interface {
	// AttachPipe registers a newly attached pipe. routingID is non-empty
	// only for ROUTER-style patterns that need identity-based dispatch.
	AttachPipe(p Pipe, routingID []byte)

	// PipeTerminated removes p from whatever policy state tracks it.
	PipeTerminated(p Pipe)

	// ReadActivated is called when p may have become readable.
	ReadActivated(p Pipe)

	// WriteActivated is called when p may have become writable again.
	WriteActivated(p Pipe)

	// Send applies the outbound policy to one multipart message (the last
	// frame in parts carries more=false).
	Send(parts []*frame.Frame) error

	// Recv returns the next multipart message available under the policy.
	Recv() ([]*frame.Frame, error)

	// HasIn / HasOut report whether Recv / Send would not block right now.
	HasIn() bool
	HasOut() bool
}
