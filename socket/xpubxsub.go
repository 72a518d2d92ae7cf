package socket

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/trie"
)

// xpubPattern is XPUB (§4.3): distributes like PUB but also surfaces
// SUBSCRIBE/CANCEL frames as application-visible messages via Recv: the
// first subscription to a prefix and the last cancellation of one, or every
// one under VERBOSE (subscribe), VERBOSE_UNSUBSCRIBE (cancel) or MANUAL;
// plus WELCOME_MSG.
type xpubPattern struct {
	log    *zerolog.Logger
	trie   *trie.Trie
	pipes  map[trie.PipeID]Pipe
	ids    map[Pipe]trie.PipeID
	nextID trie.PipeID

	verbose           bool
	verboseUnsub      bool
	manual            bool
	welcome           [][]byte
	pending           []*frame.Frame // subscribe/cancel frames queued for app Recv
}

func newXPub(s *Socket) *xpubPattern {
	return &xpubPattern{
		log:   s.Logger,
		trie:  trie.New(),
		pipes: make(map[trie.PipeID]Pipe),
		ids:   make(map[Pipe]trie.PipeID),
	}
}

// AttachPipe writes a fresh clone of WelcomeMsg to the newly attaching
// pipe (Open Question decision #1: "a fresh clone is written per attaching
// pipe").
func (xp *xpubPattern) AttachPipe(p Pipe, _ []byte) {
	xp.nextID++
	id := xp.nextID
	xp.pipes[id] = p
	xp.ids[p] = id

	for i, w := range xp.welcome {
		f := frame.New().SetBytes(w)
		more := i < len(xp.welcome)-1
		_ = p.Write(f, more)
	}
}

func (xp *xpubPattern) PipeTerminated(p Pipe) {
	id, ok := xp.ids[p]
	if !ok {
		return
	}
	xp.trie.RemoveAll(id)
	delete(xp.pipes, id)
	delete(xp.ids, p)
}

func (xp *xpubPattern) ReadActivated(p Pipe) {
	id, ok := xp.ids[p]
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
			first := xp.trie.Add(b[1:], id)
			if xp.manual || xp.verbose || first {
				xp.pending = append(xp.pending, f)
			}
		case cancelByte:
			last := xp.trie.Remove(b[1:], id)
			if xp.manual || xp.verboseUnsub || last {
				xp.pending = append(xp.pending, f)
			}
		}
	}
}

func (xp *xpubPattern) WriteActivated(Pipe) {}

func (xp *xpubPattern) Send(parts []*frame.Frame) error {
	if len(parts) == 0 {
		return ErrInvalid
	}
	var key []byte
	if len(parts[0].Bytes()) > 0 {
		key = parts[0].Bytes()
	}
	xp.trie.Match(key, func(id trie.PipeID) {
		p, ok := xp.pipes[id]
		if !ok || !p.CheckWrite() {
			return
		}
		cloned := make([]*frame.Frame, len(parts))
		for i, f := range parts {
			cloned[i] = f.Clone()
		}
		_ = writeParts(p, cloned)
	})
	return nil
}

func (xp *xpubPattern) Recv() ([]*frame.Frame, error) {
	if len(xp.pending) == 0 {
		return nil, ErrAgain
	}
	f := xp.pending[0]
	xp.pending = xp.pending[1:]
	return []*frame.Frame{f}, nil
}

func (xp *xpubPattern) HasIn() bool  { return len(xp.pending) > 0 }
func (xp *xpubPattern) HasOut() bool { return len(xp.pipes) > 0 }

func (xp *xpubPattern) ApplyOption(id OptID, value []byte) {
	on, err := cast.ToBoolE(string(value))
	if err != nil {
		on = len(value) > 0 && value[0] != 0
	}
	switch id {
	case OptXPubVerbose:
		xp.verbose = on
	case OptXPubVerboseUnsubscribe:
		xp.verboseUnsub = on
	case OptXPubManual:
		xp.manual = on
	case OptWelcomeMsg:
		xp.welcome = append(xp.welcome, append([]byte(nil), value...))
	}
}

// xsubPattern is XSUB (§4.3): Send carries raw SUBSCRIBE/CANCEL frames
// (first byte 0x01/0x00) forwarded verbatim upstream; Recv passes through
// whatever the upstream XPUB already filtered for us.
type xsubPattern struct {
	log *zerolog.Logger
	fq  fairQueue
}

func newXSub(s *Socket) *xsubPattern { return &xsubPattern{log: s.Logger} }

func (xs *xsubPattern) AttachPipe(p Pipe, _ []byte) { xs.fq.attach(p) }
func (xs *xsubPattern) PipeTerminated(p Pipe)        { xs.fq.detach(p) }
func (xs *xsubPattern) ReadActivated(Pipe)           {}
func (xs *xsubPattern) WriteActivated(Pipe)          {}

func (xs *xsubPattern) Send(parts []*frame.Frame) error {
	if len(parts) == 0 {
		return ErrInvalid
	}
	for _, p := range xs.fq.pipes {
		cloned := make([]*frame.Frame, len(parts))
		for i, f := range parts {
			cloned[i] = f.Clone()
		}
		if err := writeParts(p, cloned); err != nil {
			return err
		}
	}
	return nil
}

func (xs *xsubPattern) Recv() ([]*frame.Frame, error) {
	parts, _, ok := xs.fq.recv()
	if !ok {
		return nil, ErrAgain
	}
	return parts, nil
}

func (xs *xsubPattern) HasIn() bool  { return xs.fq.hasIn() }
func (xs *xsubPattern) HasOut() bool { return len(xs.fq.pipes) > 0 }
