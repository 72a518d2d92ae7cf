package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// PeerID is the user-visible handle PEER exposes for a connected pipe, so
// an application can address a reply at a specific peer (§4.3: "PEER
// exposes each connected peer's routing id as a user-visible handle").
type PeerID string

// peerPattern is PEER (§4.3, draft): like ROUTER/DEALER but the identity
// is surfaced to the application on both Send and Recv rather than only
// used internally for dispatch.
type peerPattern struct {
	log  *zerolog.Logger
	fq   fairQueue
	byID map[PeerID]Pipe
	id   map[Pipe]PeerID
}

func newPeerPattern(s *Socket) *peerPattern {
	return &peerPattern{log: s.Logger, byID: make(map[PeerID]Pipe), id: make(map[Pipe]PeerID)}
}

func (pp *peerPattern) AttachPipe(p Pipe, routingID []byte) {
	id := routingID
	if len(id) == 0 {
		id = autoRoutingID()
	}
	pid := PeerID(id)
	pp.byID[pid] = p
	pp.id[p] = pid
	pp.fq.attach(p)
}

func (pp *peerPattern) PipeTerminated(p Pipe) {
	pp.fq.detach(p)
	if pid, ok := pp.id[p]; ok {
		delete(pp.byID, pid)
		delete(pp.id, p)
	}
}

func (pp *peerPattern) ReadActivated(Pipe)  {}
func (pp *peerPattern) WriteActivated(Pipe) {}

func (pp *peerPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 2 {
		return ErrInvalid
	}
	p, ok := pp.byID[PeerID(parts[0].Bytes())]
	if !ok {
		return ErrHostUnreach
	}
	if !p.CheckWrite() {
		return ErrAgain
	}
	return p.Write(parts[1], false)
}

func (pp *peerPattern) Recv() ([]*frame.Frame, error) {
	parts, p, ok := pp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	pid := pp.id[p]
	return append([]*frame.Frame{frame.New().SetBytes([]byte(pid))}, parts...), nil
}

func (pp *peerPattern) HasIn() bool  { return pp.fq.hasIn() }
func (pp *peerPattern) HasOut() bool { return len(pp.byID) > 0 }
