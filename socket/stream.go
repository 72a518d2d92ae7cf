package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// streamPattern is STREAM (§4.3): like ROUTER in RAW mode for byte-stream
// peers; auto-assigns a 5-byte routing id prefixed with 0x00. Unlike
// ROUTER, there is no MANDATORY/HANDOVER identity contention — a fresh TCP
// accept always gets its own fresh identity.
type streamPattern struct {
	log  *zerolog.Logger
	fq   fairQueue
	byID map[string]Pipe
	id   map[Pipe]string
}

func newStream(s *Socket) *streamPattern {
	return &streamPattern{log: s.Logger, byID: make(map[string]Pipe), id: make(map[Pipe]string)}
}

func (sp *streamPattern) AttachPipe(p Pipe, routingID []byte) {
	id := routingID
	if len(id) == 0 {
		id = autoRoutingID()
	}
	key := string(id)
	sp.byID[key] = p
	sp.id[p] = key
	sp.fq.attach(p)
}

func (sp *streamPattern) PipeTerminated(p Pipe) {
	sp.fq.detach(p)
	if key, ok := sp.id[p]; ok {
		delete(sp.byID, key)
		delete(sp.id, p)
	}
}

func (sp *streamPattern) ReadActivated(Pipe)  {}
func (sp *streamPattern) WriteActivated(Pipe) {}

// Send takes [routing-id][raw bytes] and writes the bytes unframed (no
// MORE, since RAW disables multipart framing, §4.3).
func (sp *streamPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 2 {
		return ErrInvalid
	}
	p, ok := sp.byID[string(parts[0].Bytes())]
	if !ok {
		return nil // unknown peer already disconnected; drop
	}
	if !p.CheckWrite() {
		return ErrAgain
	}
	return p.Write(parts[1], false)
}

func (sp *streamPattern) Recv() ([]*frame.Frame, error) {
	parts, p, ok := sp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	id := sp.id[p]
	return append([]*frame.Frame{frame.New().SetBytes([]byte(id))}, parts...), nil
}

func (sp *streamPattern) HasIn() bool  { return sp.fq.hasIn() }
func (sp *streamPattern) HasOut() bool { return len(sp.byID) > 0 }
