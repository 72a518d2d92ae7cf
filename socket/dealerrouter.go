package socket

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// dealerPattern is DEALER (§4.3): load-balance out, fair-queue in, no
// envelope games.
type dealerPattern struct {
	log *zerolog.Logger
	lb  loadBalancer
	fq  fairQueue
}

func newDealer(s *Socket) *dealerPattern { return &dealerPattern{log: s.Logger} }

func (dp *dealerPattern) AttachPipe(p Pipe, _ []byte) {
	dp.lb.attach(p)
	dp.fq.attach(p)
}
func (dp *dealerPattern) PipeTerminated(p Pipe) {
	dp.lb.detach(p)
	dp.fq.detach(p)
}
func (dp *dealerPattern) ReadActivated(Pipe)    {}
func (dp *dealerPattern) WriteActivated(p Pipe) { dp.lb.writeActivated(p) }

func (dp *dealerPattern) Send(parts []*frame.Frame) error { return dp.lb.send(parts) }
func (dp *dealerPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := dp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}
func (dp *dealerPattern) HasIn() bool  { return dp.fq.hasIn() }
func (dp *dealerPattern) HasOut() bool { return dp.lb.hasOut() }

var routerAutoID uint32

// autoRoutingID allocates a 5-byte routing id prefixed with 0x00, the way
// ROUTER auto-generates identities for anonymously attached pipes (§4.3:
// "ROUTER auto-generates a 5-byte integral id").
func autoRoutingID() []byte {
	n := atomic.AddUint32(&routerAutoID, 1)
	return []byte{0x00, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

// routerPattern is ROUTER (§4.3): prepends the originating pipe's routing
// id on recv; on send strips the first frame as a routing key and looks up
// the destination pipe. MANDATORY/HANDOVER/PROBE_ROUTER modify
// attach/send behaviour; RAW is stored but changes neither framing nor
// routing-id handling.
type routerPattern struct {
	log *zerolog.Logger
	fq  fairQueue

	byID map[string]Pipe
	id   map[Pipe]string

	mandatory bool
	handover  bool
	raw       bool
	probe     bool
}

func newRouter(s *Socket) *routerPattern {
	return &routerPattern{
		log:       s.Logger,
		byID:      make(map[string]Pipe),
		id:        make(map[Pipe]string),
		mandatory: s.Options.RouterMandatory,
		handover:  s.Options.RouterHandover,
		raw:       s.Options.RouterRaw,
		probe:     s.Options.ProbeRouter,
	}
}

// AttachPipe resolves the identity tie-break (§4.3 "Attach tie-breakers"):
// MANDATORY=reject the newcomer, HANDOVER=displace the existing holder,
// neither=silently drop the new one.
func (rp *routerPattern) AttachPipe(p Pipe, routingID []byte) {
	id := routingID
	if len(id) == 0 {
		id = autoRoutingID()
	}
	key := string(id)

	if existing, ok := rp.byID[key]; ok {
		switch {
		case rp.handover:
			existing.Terminate(false)
			delete(rp.id, existing)
		case rp.mandatory:
			p.Terminate(false)
			return
		default:
			p.Terminate(false)
			return
		}
	}

	rp.byID[key] = p
	rp.id[p] = key
	rp.fq.attach(p)

	if rp.probe {
		_ = p.Write(frame.New().SetBytes(nil), false)
	}
}

func (rp *routerPattern) PipeTerminated(p Pipe) {
	rp.fq.detach(p)
	if key, ok := rp.id[p]; ok {
		delete(rp.byID, key)
		delete(rp.id, p)
	}
}

func (rp *routerPattern) ReadActivated(Pipe)  {}
func (rp *routerPattern) WriteActivated(Pipe) {}

func (rp *routerPattern) Send(parts []*frame.Frame) error {
	if len(parts) < 1 {
		return ErrInvalid
	}
	key := string(parts[0].Bytes())
	p, ok := rp.byID[key]
	if !ok {
		if rp.mandatory {
			return ErrHostUnreach
		}
		return nil // silently drop, §4.3 default
	}
	if !p.CheckWrite() {
		if rp.mandatory {
			return ErrAgain
		}
		return nil
	}
	return writeParts(p, parts[1:])
}

func (rp *routerPattern) Recv() ([]*frame.Frame, error) {
	parts, p, ok := rp.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	id, ok := rp.id[p]
	if !ok {
		return parts, nil
	}
	envelope := frame.New().SetBytes([]byte(id))
	return append([]*frame.Frame{envelope}, parts...), nil
}

func (rp *routerPattern) HasIn() bool  { return rp.fq.hasIn() }
func (rp *routerPattern) HasOut() bool { return len(rp.byID) > 0 }
