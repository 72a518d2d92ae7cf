package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
)

// radioPattern is RADIO (§4.3, draft): distributes a frame to every DISH
// pipe subscribed to its Group label, using groups instead of prefixes
// (restored from original_source radio.rs/dish.rs per SUPPLEMENTED
// FEATURES).
type radioPattern struct {
	log   *zerolog.Logger
	pipes map[Pipe]map[string]bool // pipe -> set of joined groups
	order []Pipe
}

func newRadio(s *Socket) *radioPattern {
	return &radioPattern{log: s.Logger, pipes: make(map[Pipe]map[string]bool)}
}

func (rp *radioPattern) AttachPipe(p Pipe, _ []byte) {
	rp.pipes[p] = make(map[string]bool)
	rp.order = append(rp.order, p)
}

func (rp *radioPattern) PipeTerminated(p Pipe) {
	delete(rp.pipes, p)
	for i, pp := range rp.order {
		if pp == p {
			rp.order = append(rp.order[:i], rp.order[i+1:]...)
			return
		}
	}
}

// ReadActivated drains JOIN/LEAVE control frames from p, where the first
// byte distinguishes join (1) from leave (0) and the remainder is the
// group name, mirroring the classic PUB subByte/cancelByte convention.
func (rp *radioPattern) ReadActivated(p Pipe) {
	groups, ok := rp.pipes[p]
	if !ok {
		return
	}
	for {
		f, ok := p.Read()
		if !ok {
			return
		}
		b := f.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == subByte {
			groups[string(b[1:])] = true
		} else {
			delete(groups, string(b[1:]))
		}
	}
}

func (rp *radioPattern) WriteActivated(Pipe) {}

func (rp *radioPattern) Send(parts []*frame.Frame) error {
	if len(parts) != 1 {
		return ErrInvalid
	}
	group := parts[0].Group
	for _, p := range rp.order {
		if !rp.pipes[p][group] {
			continue
		}
		if !p.CheckWrite() {
			continue
		}
		_ = p.Write(parts[0].Clone(), false)
	}
	return nil
}

func (rp *radioPattern) Recv() ([]*frame.Frame, error) { return nil, ErrNotSupported }
func (rp *radioPattern) HasIn() bool                   { return false }
func (rp *radioPattern) HasOut() bool                  { return len(rp.order) > 0 }

// dishPattern is DISH (§4.3, draft): joins a set of groups; Recv only
// returns frames whose Group label is currently joined.
type dishPattern struct {
	log    *zerolog.Logger
	fq     fairQueue
	groups map[string]bool
}

func newDish(s *Socket) *dishPattern {
	return &dishPattern{log: s.Logger, groups: make(map[string]bool)}
}

func (dp *dishPattern) AttachPipe(p Pipe, _ []byte) {
	dp.fq.attach(p)
	for g := range dp.groups {
		_ = p.Write(subFrame([]byte(g), true), false)
	}
}
func (dp *dishPattern) PipeTerminated(p Pipe) { dp.fq.detach(p) }
func (dp *dishPattern) ReadActivated(Pipe)    {}
func (dp *dishPattern) WriteActivated(Pipe)   {}

func (dp *dishPattern) Send([]*frame.Frame) error { return ErrNotSupported }

func (dp *dishPattern) Recv() ([]*frame.Frame, error) {
	for {
		parts, _, ok := dp.fq.recv()
		if !ok {
			return nil, ErrAgain
		}
		if len(parts) != 1 {
			continue
		}
		if dp.groups[parts[0].Group] {
			return parts, nil
		}
	}
}

func (dp *dishPattern) HasIn() bool  { return dp.fq.hasIn() }
func (dp *dishPattern) HasOut() bool { return false }

// Join/Leave are DISH-specific operations exposed beyond the common
// Pattern interface (group membership has no §6 option-table slot).
func (dp *dishPattern) Join(group string) {
	dp.groups[group] = true
	for _, p := range dp.fq.pipes {
		_ = p.Write(subFrame([]byte(group), true), false)
	}
}

func (dp *dishPattern) Leave(group string) {
	delete(dp.groups, group)
	for _, p := range dp.fq.pipes {
		_ = p.Write(subFrame([]byte(group), false), false)
	}
}
