package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// pairPattern implements PAIR (§4.3): "exactly one pipe permitted;
// additional attachments immediately terminate the newcomer."
type pairPattern struct {
	log *zerolog.Logger
	p   Pipe
}

func newPair(s *Socket) *pairPattern {
	return &pairPattern{log: s.Logger}
}

func (pp *pairPattern) AttachPipe(p Pipe, _ []byte) {
	if pp.p != nil {
		p.Terminate(false)
		return
	}
	pp.p = p
}

func (pp *pairPattern) PipeTerminated(p Pipe) {
	if pp.p == p {
		pp.p = nil
	}
}

func (pp *pairPattern) ReadActivated(Pipe)  {}
func (pp *pairPattern) WriteActivated(Pipe) {}

func (pp *pairPattern) Send(parts []*frame.Frame) error {
	if pp.p == nil {
		return ErrAgain
	}
	if !pp.p.CheckWrite() {
		return ErrAgain
	}
	return writeParts(pp.p, parts)
}

func (pp *pairPattern) Recv() ([]*frame.Frame, error) {
	if pp.p == nil {
		return nil, ErrAgain
	}
	f, ok := pp.p.Read()
	if !ok {
		return nil, ErrAgain
	}
	parts := []*frame.Frame{f}
	for f.Flags.Has(frame.FlagMore) {
		nf, ok := pp.p.Read()
		if !ok {
			continue
		}
		parts = append(parts, nf)
		f = nf
	}
	return parts, nil
}

func (pp *pairPattern) HasIn() bool  { return pp.p != nil }
func (pp *pairPattern) HasOut() bool { return pp.p != nil && pp.p.CheckWrite() }
