package socket

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/mailbox"
	"github.com/zmtpfix/zmtpfix/metrics"
)

// Socket is the public per-type handle (§3 Socket, §4.3): a type tag, a
// Pattern applying the per-type policy, process-wide Options, and a
// mailbox for cross-thread control commands. Non-thread-safe types are
// guarded only by the single-owner-thread discipline (§5); thread-safe
// draft types (Type.ThreadSafe) additionally take mu around Send/Recv.
type Socket struct {
	*zerolog.Logger

	Type    Type
	Options Options
	Pattern Pattern

	mbox *mailbox.Mailbox
	mu   sync.Mutex // only taken when Type.ThreadSafe()

	// appMetadata is the one cross-cutting dictionary (§9: "the only
	// dictionary"); everything else is a typed Options field.
	appMetadata *xsync.MapOf[string, string]

	closed bool
}

// New constructs a Socket of typ with opts, used as given (zero fields are
// not filled in from DefaultOptions; a nil Logger disables logging), and
// the matching Pattern.
func New(typ Type, opts Options) *Socket {
	s := &Socket{
		Type:        typ,
		Options:     opts,
		mbox:        mailbox.New(64),
		appMetadata: xsync.NewMapOf[string, string](),
	}
	if opts.Logger != nil {
		s.Logger = opts.Logger
	} else {
		l := zerolog.Nop()
		s.Logger = &l
	}
	s.Pattern = newPattern(typ, s)
	metrics.SocketOpened(typ.String())
	return s
}

func newPattern(typ Type, s *Socket) Pattern {
	switch typ {
	case Pair:
		return newPair(s)
	case Push:
		return newPush(s)
	case Pull:
		return newPull(s)
	case Pub:
		return newPub(s)
	case Sub:
		return newSub(s)
	case XPub:
		return newXPub(s)
	case XSub:
		return newXSub(s)
	case Req:
		return newReq(s)
	case Rep:
		return newRep(s)
	case Dealer:
		return newDealer(s)
	case Router:
		return newRouter(s)
	case Stream:
		return newStream(s)
	case Server:
		return newServer(s)
	case Client:
		return newClient(s)
	case Radio:
		return newRadio(s)
	case Dish:
		return newDish(s)
	case Scatter:
		return newScatter(s)
	case Gather:
		return newGather(s)
	case Dgram:
		return newDgram(s)
	case Peer:
		return newPeerPattern(s)
	default:
		return newPair(s)
	}
}

// Mailbox exposes the socket's command inbox, the way a Session posts
// ACTIVATE-READ/HICCUP/PIPE-TERM commands to the pipe's owning object.
func (s *Socket) Mailbox() *mailbox.Mailbox { return s.mbox }

// AttachPipe wires a freshly created Pipe into the socket's Pattern.
// routingID is consulted only by ROUTER-style patterns.
func (s *Socket) AttachPipe(p Pipe, routingID []byte) {
	s.Pattern.AttachPipe(p, routingID)
}

// optionApplier is implemented by patterns that need to react immediately
// to an option change (SUB forwarding a new subscription upstream, XPUB
// adjusting VERBOSE/MANUAL). Patterns with nothing to react to simply
// don't implement it.
type optionApplier interface {
	ApplyOption(id OptID, value []byte)
}

// SetOption validates and applies value to id, then gives the socket's
// Pattern a chance to react (e.g. SUB pushing a SUBSCRIBE frame upstream).
func (s *Socket) SetOption(id OptID, value any) error {
	if err := s.Options.Set(s.Type, id, value); err != nil {
		return err
	}
	if oa, ok := s.Pattern.(optionApplier); ok {
		b, _ := toBytes(value)
		oa.ApplyOption(id, b)
	}
	return nil
}

// Send applies Set(Conflate)+MORE EINVAL (Open Question #3) before handing
// off to the Pattern, then throttles via Options.Limiter if RATE is set.
func (s *Socket) Send(parts []*frame.Frame) error {
	if s.Type.ThreadSafe() {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.closed {
		return ErrTerm
	}
	if s.Options.Conflate && len(parts) > 1 {
		return ErrInvalid
	}
	if lim := s.Options.Limiter(); lim != nil {
		if !lim.Allow() {
			return ErrAgain
		}
	}
	return s.Pattern.Send(parts)
}

func (s *Socket) Recv() ([]*frame.Frame, error) {
	if s.Type.ThreadSafe() {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	if s.closed {
		return nil, ErrTerm
	}
	return s.Pattern.Recv()
}

func (s *Socket) HasIn() bool  { return s.Pattern.HasIn() }
func (s *Socket) HasOut() bool { return s.Pattern.HasOut() }

// SetMetadata / Metadata expose the single cross-cutting app_metadata
// dictionary named in §9 ("the cross-cutting app_metadata map is the only
// dictionary").
func (s *Socket) SetMetadata(key, value string) { s.appMetadata.Store(key, value) }
func (s *Socket) Metadata(key string) (string, bool) { return s.appMetadata.Load(key) }

// Close marks the socket closed; a real Context would now run the
// close->reap->final-destroy protocol (§4.6, implemented in zctx.Reaper).
func (s *Socket) Close() {
	if !s.closed {
		metrics.SocketClosed(s.Type.String())
	}
	s.closed = true
	s.mbox.Close()
}

// The Process* methods satisfy mailbox.Object. A Socket acts on TERM,
// ACTIVATE_READ, ACTIVATE_WRITE, PIPE_TERM and ATTACH; every other command
// is accepted and ignored. mailbox.Dispatch panics only on an Op value
// outside the defined set.
func (s *Socket) ProcessPlug(mailbox.Command)          {}
func (s *Socket) ProcessOwn(mailbox.Command)           {}
func (s *Socket) ProcessTerm(cmd mailbox.Command)      { s.Close() }
func (s *Socket) ProcessActivateRead(cmd mailbox.Command) {
	if p, ok := cmd.Target.(Pipe); ok {
		s.Pattern.ReadActivated(p)
	}
}
func (s *Socket) ProcessActivateWrite(cmd mailbox.Command) {
	if p, ok := cmd.Target.(Pipe); ok {
		s.Pattern.WriteActivated(p)
	}
}
func (s *Socket) ProcessHiccup(mailbox.Command) {}
func (s *Socket) ProcessPipeTerm(cmd mailbox.Command) {
	if p, ok := cmd.Target.(Pipe); ok {
		s.Pattern.PipeTerminated(p)
	}
}
func (s *Socket) ProcessPipeTermAck(mailbox.Command)   {}
func (s *Socket) ProcessAttach(cmd mailbox.Command) {
	if p, ok := cmd.Target.(Pipe); ok {
		rid, _ := cmd.Arg.([]byte)
		s.AttachPipe(p, rid)
	}
}
func (s *Socket) ProcessBind(mailbox.Command)          {}
func (s *Socket) ProcessSeqnum(mailbox.Command)        {}
func (s *Socket) ProcessConnFailed(mailbox.Command)    {}
func (s *Socket) ProcessPipeHWM(mailbox.Command)       {}
func (s *Socket) ProcessPipePeerStats(mailbox.Command) {}
