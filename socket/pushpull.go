package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// pushPattern is PUSH (§4.3): load-balance outbound, no inbound.
type pushPattern struct {
	log *zerolog.Logger
	lb  loadBalancer
}

func newPush(s *Socket) *pushPattern { return &pushPattern{log: s.Logger} }

func (pp *pushPattern) AttachPipe(p Pipe, _ []byte) { pp.lb.attach(p) }
func (pp *pushPattern) PipeTerminated(p Pipe)        { pp.lb.detach(p) }
func (pp *pushPattern) ReadActivated(Pipe)           {}
func (pp *pushPattern) WriteActivated(p Pipe)        { pp.lb.writeActivated(p) }
func (pp *pushPattern) Send(parts []*frame.Frame) error {
	return pp.lb.send(parts)
}
func (pp *pushPattern) Recv() ([]*frame.Frame, error) { return nil, ErrNotSupported }
func (pp *pushPattern) HasIn() bool                   { return false }
func (pp *pushPattern) HasOut() bool                  { return pp.lb.hasOut() }

// pullPattern is PULL (§4.3): fair-queue inbound, no outbound.
type pullPattern struct {
	log *zerolog.Logger
	fq  fairQueue
}

func newPull(s *Socket) *pullPattern { return &pullPattern{log: s.Logger} }

func (pp *pullPattern) AttachPipe(p Pipe, _ []byte) { pp.fq.attach(p) }
func (pp *pullPattern) PipeTerminated(p Pipe)        { pp.fq.detach(p) }
func (pp *pullPattern) ReadActivated(Pipe)           {}
func (pp *pullPattern) WriteActivated(Pipe)          {}
func (pp *pullPattern) Send([]*frame.Frame) error    { return ErrNotSupported }
func (pp *pullPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := pp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}
func (pp *pullPattern) HasIn() bool  { return pp.fq.hasIn() }
func (pp *pullPattern) HasOut() bool { return false }
