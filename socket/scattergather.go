package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// scatterPattern is SCATTER (§4.3, draft): the thread-safe twin of PUSH —
// load-balance outbound, single-frame only.
type scatterPattern struct {
	log *zerolog.Logger
	lb  loadBalancer
}

func newScatter(s *Socket) *scatterPattern { return &scatterPattern{log: s.Logger} }

func (sp *scatterPattern) AttachPipe(p Pipe, _ []byte) { sp.lb.attach(p) }
func (sp *scatterPattern) PipeTerminated(p Pipe)        { sp.lb.detach(p) }
func (sp *scatterPattern) ReadActivated(Pipe)           {}
func (sp *scatterPattern) WriteActivated(p Pipe)        { sp.lb.writeActivated(p) }
func (sp *scatterPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 1 {
		return ErrInvalid
	}
	return sp.lb.send(parts)
}
func (sp *scatterPattern) Recv() ([]*frame.Frame, error) { return nil, ErrNotSupported }
func (sp *scatterPattern) HasIn() bool                   { return false }
func (sp *scatterPattern) HasOut() bool                  { return sp.lb.hasOut() }

// gatherPattern is GATHER (§4.3, draft): the thread-safe twin of PULL —
// fair-queue inbound, single-frame only.
type gatherPattern struct {
	log *zerolog.Logger
	fq  fairQueue
}

func newGather(s *Socket) *gatherPattern { return &gatherPattern{log: s.Logger} }

func (gp *gatherPattern) AttachPipe(p Pipe, _ []byte) { gp.fq.attach(p) }
func (gp *gatherPattern) PipeTerminated(p Pipe)        { gp.fq.detach(p) }
func (gp *gatherPattern) ReadActivated(Pipe)           {}
func (gp *gatherPattern) WriteActivated(Pipe)          {}
func (gp *gatherPattern) Send([]*frame.Frame) error    { return ErrNotSupported }
func (gp *gatherPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := gp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}
func (gp *gatherPattern) HasIn() bool  { return gp.fq.hasIn() }
func (gp *gatherPattern) HasOut() bool { return false }
