package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// serverPattern is SERVER (§4.3, draft): thread-safe single-frame ROUTER —
// Recv prepends the originating peer's routing id, Send's first frame
// selects the destination peer. MORE is rejected (single-frame only).
type serverPattern struct {
	log  *zerolog.Logger
	fq   fairQueue
	byID map[string]Pipe
	id   map[Pipe]string
}

func newServer(s *Socket) *serverPattern {
	return &serverPattern{log: s.Logger, byID: make(map[string]Pipe), id: make(map[Pipe]string)}
}

func (sp *serverPattern) AttachPipe(p Pipe, routingID []byte) {
	id := routingID
	if len(id) == 0 {
		id = autoRoutingID()
	}
	key := string(id)
	sp.byID[key] = p
	sp.id[p] = key
	sp.fq.attach(p)
}

func (sp *serverPattern) PipeTerminated(p Pipe) {
	sp.fq.detach(p)
	if key, ok := sp.id[p]; ok {
		delete(sp.byID, key)
		delete(sp.id, p)
	}
}

func (sp *serverPattern) ReadActivated(Pipe)  {}
func (sp *serverPattern) WriteActivated(Pipe) {}

func (sp *serverPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 2 {
		return ErrInvalid
	}
	p, ok := sp.byID[string(parts[0].Bytes())]
	if !ok {
		return ErrHostUnreach
	}
	if !p.CheckWrite() {
		return ErrAgain
	}
	return p.Write(parts[1], false)
}

func (sp *serverPattern) Recv() ([]*frame.Frame, error) {
	f, p, ok := sp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	id := sp.id[p]
	return append([]*frame.Frame{frame.New().SetBytes([]byte(id))}, f...), nil
}

func (sp *serverPattern) HasIn() bool  { return sp.fq.hasIn() }
func (sp *serverPattern) HasOut() bool { return len(sp.byID) > 0 }

// clientPattern is CLIENT (§4.3, draft): thread-safe single-frame DEALER —
// load-balance out, fair-queue in, no envelope.
type clientPattern struct {
	log *zerolog.Logger
	lb  loadBalancer
	fq  fairQueue
}

func newClient(s *Socket) *clientPattern { return &clientPattern{log: s.Logger} }

func (cp *clientPattern) AttachPipe(p Pipe, _ []byte) {
	cp.lb.attach(p)
	cp.fq.attach(p)
}
func (cp *clientPattern) PipeTerminated(p Pipe) {
	cp.lb.detach(p)
	cp.fq.detach(p)
}
func (cp *clientPattern) ReadActivated(Pipe)    {}
func (cp *clientPattern) WriteActivated(p Pipe) { cp.lb.writeActivated(p) }

func (cp *clientPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 1 {
		return ErrInvalid
	}
	return cp.lb.send(parts)
}
func (cp *clientPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := cp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}
func (cp *clientPattern) HasIn() bool  { return cp.fq.hasIn() }
func (cp *clientPattern) HasOut() bool { return cp.lb.hasOut() }
