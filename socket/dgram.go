package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// dgramPattern is DGRAM (§4.3, draft): connectionless single-frame
// exchange over UDP-style transports — every Send/Recv frame carries its
// own peer address as the first part, since there is no persistent pipe
// per peer the way TCP sockets have.
type dgramPattern struct {
	log *zerolog.Logger
	fq  fairQueue
	lb  loadBalancer
}

func newDgram(s *Socket) *dgramPattern { return &dgramPattern{log: s.Logger} }

func (dp *dgramPattern) AttachPipe(p Pipe, _ []byte) {
	dp.fq.attach(p)
	dp.lb.attach(p)
}
func (dp *dgramPattern) PipeTerminated(p Pipe) {
	dp.fq.detach(p)
	dp.lb.detach(p)
}
func (dp *dgramPattern) ReadActivated(Pipe)    {}
func (dp *dgramPattern) WriteActivated(p Pipe) { dp.lb.writeActivated(p) }

func (dp *dgramPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 2 {
		return ErrInvalid
	}
	return dp.lb.send(parts)
}
func (dp *dgramPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := dp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}
func (dp *dgramPattern) HasIn() bool  { return dp.fq.hasIn() }
func (dp *dgramPattern) HasOut() bool { return dp.lb.hasOut() }
