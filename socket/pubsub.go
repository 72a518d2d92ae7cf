package socket

import (
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/trie"
)

// subscribe/cancel wire prefix bytes, classic ZMTP PUB/SUB convention
// (distinct from the XPUB/XSUB COMMAND-frame variant, §4.3): the first
// payload byte of a control message on a PUB<->SUB pipe is 0x01 (subscribe)
// or 0x00 (cancel), followed by the prefix.
const (
	subByte    = 0x01
	cancelByte = 0x00
)

func subFrame(prefix []byte, subscribe bool) *frame.Frame {
	f := frame.New()
	buf := make([]byte, 0, len(prefix)+1)
	if subscribe {
		buf = append(buf, subByte)
	} else {
		buf = append(buf, cancelByte)
	}
	buf = append(buf, prefix...)
	return f.SetBytes(buf)
}

// pubPattern is PUB (§4.3): holds a subscription trie keyed by the
// subscriber pipe's assigned id; send matches the first frame as a prefix
// key and distributes to every pipe in the match set.
type pubPattern struct {
	log    *zerolog.Logger
	trie   *trie.Trie
	pipes  map[trie.PipeID]Pipe
	nextID trie.PipeID
	ids    map[Pipe]trie.PipeID
	nodrop bool
}

func newPub(s *Socket) *pubPattern {
	return &pubPattern{
		log:    s.Logger,
		trie:   trie.New(),
		pipes:  make(map[trie.PipeID]Pipe),
		ids:    make(map[Pipe]trie.PipeID),
		nodrop: false,
	}
}

func (pp *pubPattern) AttachPipe(p Pipe, _ []byte) {
	pp.nextID++
	id := pp.nextID
	pp.pipes[id] = p
	pp.ids[p] = id
}

func (pp *pubPattern) PipeTerminated(p Pipe) {
	id, ok := pp.ids[p]
	if !ok {
		return
	}
	pp.trie.RemoveAll(id)
	delete(pp.pipes, id)
	delete(pp.ids, p)
}

// ReadActivated drains SUBSCRIBE/CANCEL control frames sent upstream by a
// subscriber on p's inbound half.
func (pp *pubPattern) ReadActivated(p Pipe) {
	id, ok := pp.ids[p]
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
		switch b[0] {
		case subByte:
			pp.trie.Add(b[1:], id)
		case cancelByte:
			pp.trie.Remove(b[1:], id)
		}
	}
}

func (pp *pubPattern) WriteActivated(Pipe) {}

func (pp *pubPattern) Send(parts []*frame.Frame) error {
	if len(parts) == 0 {
		return ErrInvalid
	}
	var key []byte
	if len(parts[0].Bytes()) > 0 {
		key = parts[0].Bytes()
	}

	delivered := false
	var blocked error
	pp.trie.Match(key, func(id trie.PipeID) {
		p, ok := pp.pipes[id]
		if !ok {
			return
		}
		if !p.CheckWrite() {
			if pp.nodrop {
				blocked = ErrAgain
			}
			return // lossy PUB: silently drop for this recipient (§4.3)
		}
		// fan out via Clone, the cheap SHARED-refcount path (§3/§9).
		cloned := make([]*frame.Frame, len(parts))
		for i, f := range parts {
			cloned[i] = f.Clone()
		}
		_ = writeParts(p, cloned)
		delivered = true
	})
	if pp.nodrop && blocked != nil {
		return blocked
	}
	_ = delivered
	return nil
}

func (pp *pubPattern) Recv() ([]*frame.Frame, error) { return nil, ErrNotSupported }
func (pp *pubPattern) HasIn() bool                   { return false }
func (pp *pubPattern) HasOut() bool                  { return len(pp.pipes) > 0 }

// subPattern is SUB (§4.3): a local subscription trie filters inbound PUB
// data; Subscribe/Unsubscribe push SUBSCRIBE/CANCEL frames upstream on
// every attached pipe (and on any pipe attached thereafter).
type subPattern struct {
	log    *zerolog.Logger
	fq     fairQueue
	local  *trie.Trie
	subs   [][]byte // remembered so a newly attached pipe gets replayed state
	nextID trie.PipeID
}

func newSub(s *Socket) *subPattern {
	sp := &subPattern{log: s.Logger, local: trie.New()}
	for _, pfx := range s.Options.Subscribe {
		sp.local.Add(pfx, 0)
		sp.subs = append(sp.subs, pfx)
	}
	return sp
}

func (sp *subPattern) AttachPipe(p Pipe, _ []byte) {
	sp.fq.attach(p)
	for _, pfx := range sp.subs {
		_ = p.Write(subFrame(pfx, true), false)
	}
}

func (sp *subPattern) PipeTerminated(p Pipe) { sp.fq.detach(p) }
func (sp *subPattern) ReadActivated(Pipe)    {}
func (sp *subPattern) WriteActivated(Pipe)   {}

func (sp *subPattern) Send([]*frame.Frame) error { return ErrNotSupported }

func (sp *subPattern) Recv() ([]*frame.Frame, error) {
	for {
		parts, _, ok := sp.fq.recv()
		if !ok {
			return nil, ErrAgain
		}
		if len(parts) == 0 {
			continue
		}
		if sp.local.CheckMatch(parts[0].Bytes()) {
			return parts, nil
		}
		// not subscribed to this prefix: drop and keep looking (§4.3
		// "SUB.recv must not return frames whose ... prefix is not
		// subscribed").
	}
}

func (sp *subPattern) HasIn() bool  { return sp.fq.hasIn() }
func (sp *subPattern) HasOut() bool { return false }

// ApplyOption reacts to Subscribe/Unsubscribe by updating the local trie
// and pushing the control frame to every attached pipe.
func (sp *subPattern) ApplyOption(id OptID, value []byte) {
	switch id {
	case OptSubscribe:
		sp.local.Add(value, 0)
		sp.subs = append(sp.subs, append([]byte(nil), value...))
		for _, p := range sp.fq.pipes {
			_ = p.Write(subFrame(value, true), false)
		}
	case OptUnsubscribe:
		sp.local.Remove(value, 0)
		for i, s := range sp.subs {
			if string(s) == string(value) {
				sp.subs = append(sp.subs[:i], sp.subs[i+1:]...)
				break
			}
		}
		for _, p := range sp.fq.pipes {
			_ = p.Write(subFrame(value, false), false)
		}
	}
}
