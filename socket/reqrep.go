package socket

import (
	"encoding/binary"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// REQ reply-recv stages, each pinned to exactly which Read() comes next so
// a reply that arrives one frame at a time never re-reads (and never
// re-consumes) a frame already seen.
const (
	reqRecvID        = iota // next Read() yields the correlate id (skipped when !correlate)
	reqRecvDelimiter        // next Read() yields the empty delimiter
	reqRecvBody             // delimiter consumed; draining the message body
)

// reqPattern is REQ (§4.3): prepends an empty delimiter frame (and a
// request-id when Correlate is set), enforces strict alternation
// send -> recv unless Relaxed.
type reqPattern struct {
	log       *zerolog.Logger
	lb        loadBalancer
	correlate bool
	relaxed   bool

	awaitingRecv bool
	lastPipe     Pipe
	lastReqID    uint32
	nextReqID    uint32

	// recv state, resumable across calls so a group only partially
	// available never spins or loses frames already read (§8 Property 3).
	recvStage int
	recvMore  bool
	recvBody  []*frame.Frame
}

func newReq(s *Socket) *reqPattern {
	return &reqPattern{log: s.Logger, correlate: s.Options.ReqCorrelate, relaxed: s.Options.ReqRelaxed}
}

func (rp *reqPattern) AttachPipe(p Pipe, _ []byte) { rp.lb.attach(p) }
func (rp *reqPattern) PipeTerminated(p Pipe) {
	rp.lb.detach(p)
	if rp.lastPipe == p {
		rp.lastPipe = nil
		rp.awaitingRecv = false
		rp.recvStage = reqRecvID
		rp.recvBody = nil
	}
}
func (rp *reqPattern) ReadActivated(Pipe)    {}
func (rp *reqPattern) WriteActivated(p Pipe) { rp.lb.writeActivated(p) }

func (rp *reqPattern) Send(parts []*frame.Frame) error {
	if rp.awaitingRecv && !rp.relaxed {
		return ErrFSM
	}

	n := len(rp.lb.active)
	if n == 0 {
		return ErrAgain
	}
	idx := rp.lb.cursor % n
	p := rp.lb.active[idx]
	if !p.CheckWrite() {
		return ErrAgain
	}

	envelope := make([]*frame.Frame, 0, len(parts)+2)
	if rp.correlate {
		rp.nextReqID++
		rp.lastReqID = rp.nextReqID
		id := frame.New()
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], rp.lastReqID)
		id.SetBytes(b[:])
		envelope = append(envelope, id)
	}
	envelope = append(envelope, frame.New().SetBytes(nil))
	envelope = append(envelope, parts...)

	if err := writeParts(p, envelope); err != nil {
		return err
	}
	rp.lb.cursor = (idx + 1) % n
	rp.lastPipe = p
	rp.awaitingRecv = true
	return nil
}

// Recv drains one REQ reply (correlate id, delimiter, body), resuming from
// recvStage on every call so a reply that isn't fully queued yet returns
// ErrAgain instead of spinning, without losing whatever has already been
// read.
func (rp *reqPattern) Recv() ([]*frame.Frame, error) {
	if rp.lastPipe == nil {
		return nil, ErrFSM
	}

	if rp.recvStage == reqRecvID {
		if rp.correlate {
			if _, ok := rp.lastPipe.Read(); !ok {
				return nil, ErrAgain
			}
		}
		rp.recvStage = reqRecvDelimiter
	}

	if rp.recvStage == reqRecvDelimiter {
		f, ok := rp.lastPipe.Read() // the empty delimiter
		if !ok {
			return nil, ErrAgain
		}
		rp.recvMore = f.Flags.Has(frame.FlagMore)
		rp.recvStage = reqRecvBody
	}

	for rp.recvMore {
		nf, ok := rp.lastPipe.Read()
		if !ok {
			return nil, ErrAgain
		}
		rp.recvBody = append(rp.recvBody, nf)
		rp.recvMore = nf.Flags.Has(frame.FlagMore)
	}

	body := rp.recvBody
	rp.recvBody = nil
	rp.recvStage = reqRecvID
	rp.awaitingRecv = false
	return body, nil
}

func (rp *reqPattern) HasIn() bool  { return rp.lastPipe != nil }
func (rp *reqPattern) HasOut() bool { return !rp.awaitingRecv && rp.lb.hasOut() }

// REP recv stages: scanning is the round-robin hunt for a pipe with a
// frame ready at all; once one is found, envelope/body each drain the same
// pinned pipe until its delimiter (envelope) or its final frame (body).
const (
	repRecvScanning = iota // no message in progress; round-robin over fq.pipes
	repRecvEnvelope        // collecting routing-envelope frames up to the delimiter
	repRecvBody            // delimiter consumed; draining the message body
)

// repPattern is REP (§4.3): remembers the routing envelope (everything up
// to and including the empty delimiter) on receive and requires send to
// replay it.
type repPattern struct {
	log          *zerolog.Logger
	fq           fairQueue
	envelope     []*frame.Frame
	pipe         Pipe
	awaitingSend bool

	// recv state, resumable across calls (§8 Property 3): a pipe found
	// mid-scan is pinned in recvPipe until its whole envelope+body is
	// drained, so a later call never re-scans from fq.cursor and never
	// spins waiting on a frame that hasn't arrived yet.
	recvStage    int
	recvPipe     Pipe
	recvFrame    *frame.Frame
	recvEnvelope []*frame.Frame
	recvBody     []*frame.Frame
}

func newRep(s *Socket) *repPattern { return &repPattern{log: s.Logger} }

func (rp *repPattern) AttachPipe(p Pipe, _ []byte) { rp.fq.attach(p) }
func (rp *repPattern) PipeTerminated(p Pipe) {
	rp.fq.detach(p)
	if rp.pipe == p {
		rp.pipe = nil
		rp.awaitingSend = false
	}
	if rp.recvPipe == p {
		rp.resetRecv()
	}
}
func (rp *repPattern) ReadActivated(Pipe)  {}
func (rp *repPattern) WriteActivated(Pipe) {}

func (rp *repPattern) resetRecv() {
	rp.recvStage = repRecvScanning
	rp.recvPipe = nil
	rp.recvFrame = nil
	rp.recvEnvelope = nil
	rp.recvBody = nil
}

// Recv hunts round-robin for a pipe with a request ready, then drains its
// envelope and body. A group found only partially available returns
// ErrAgain and is resumed on the next call rather than spun on or rescanned.
func (rp *repPattern) Recv() ([]*frame.Frame, error) {
	if rp.awaitingSend {
		return nil, ErrFSM
	}

	if rp.recvStage == repRecvScanning {
		n := len(rp.fq.pipes)
		if n == 0 {
			return nil, ErrAgain
		}
		found := false
		for i := 0; i < n; i++ {
			idx := (rp.fq.cursor + i) % n
			p := rp.fq.pipes[idx]
			f, ok := p.Read()
			if !ok {
				continue // this pipe has nothing right now; try the next, bounded by n
			}
			rp.fq.cursor = (idx + 1) % n
			rp.recvPipe = p
			rp.recvFrame = f
			rp.recvStage = repRecvEnvelope
			found = true
			break
		}
		if !found {
			return nil, ErrAgain
		}
	}

	if rp.recvStage == repRecvEnvelope {
		for rp.recvFrame.Len() > 0 && rp.recvFrame.Flags.Has(frame.FlagMore) {
			rp.recvEnvelope = append(rp.recvEnvelope, rp.recvFrame)
			nf, ok := rp.recvPipe.Read()
			if !ok {
				return nil, ErrAgain
			}
			rp.recvFrame = nf
		}
		rp.recvEnvelope = append(rp.recvEnvelope, rp.recvFrame) // the empty delimiter itself
		rp.recvStage = repRecvBody
	}

	for rp.recvFrame.Flags.Has(frame.FlagMore) {
		nf, ok := rp.recvPipe.Read()
		if !ok {
			return nil, ErrAgain
		}
		rp.recvBody = append(rp.recvBody, nf)
		rp.recvFrame = nf
	}

	rp.envelope = rp.recvEnvelope
	rp.pipe = rp.recvPipe
	body := rp.recvBody
	rp.awaitingSend = true
	rp.resetRecv()
	return body, nil
}

func (rp *repPattern) Send(parts []*frame.Frame) error {
	if !rp.awaitingSend || rp.pipe == nil {
		return ErrFSM
	}
	if !rp.pipe.CheckWrite() {
		return ErrAgain
	}
	full := append(append([]*frame.Frame{}, rp.envelope...), parts...)
	if err := writeParts(rp.pipe, full); err != nil {
		return err
	}
	rp.awaitingSend = false
	return nil
}

func (rp *repPattern) HasIn() bool  { return !rp.awaitingSend && rp.fq.hasIn() }
func (rp *repPattern) HasOut() bool { return rp.awaitingSend }
