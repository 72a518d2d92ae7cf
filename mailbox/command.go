// Package mailbox implements the cross-thread command channel every owned
// object uses instead of shared mutable state (§5, §9): "a tagged command
// variant plus an Object capability". A Mailbox wraps a buffered Go
// channel — itself the lock-free queue-plus-wakeup primitive the original
// pairs with an eventfd/socketpair signaller, so no separate signaller is
// needed here.
package mailbox

// Op names the command kinds every Object implementation must handle (§9).
// Dispatch panics on an Op value outside this set; an Object with no use
// for a given Op implements its method as a no-op (Socket and Session
// both do).
type Op int

const (
	OpPlug Op = iota
	OpOwn
	OpTerm
	OpActivateRead
	OpActivateWrite
	OpHiccup
	OpPipeTerm
	OpPipeTermAck
	OpAttach
	OpBind
	OpSeqnum
	OpConnFailed
	OpPipeHWM
	OpPipePeerStats
)

func (op Op) String() string {
	switch op {
	case OpPlug:
		return "PLUG"
	case OpOwn:
		return "OWN"
	case OpTerm:
		return "TERM"
	case OpActivateRead:
		return "ACTIVATE_READ"
	case OpActivateWrite:
		return "ACTIVATE_WRITE"
	case OpHiccup:
		return "HICCUP"
	case OpPipeTerm:
		return "PIPE_TERM"
	case OpPipeTermAck:
		return "PIPE_TERM_ACK"
	case OpAttach:
		return "ATTACH"
	case OpBind:
		return "BIND"
	case OpSeqnum:
		return "SEQNUM"
	case OpConnFailed:
		return "CONN_FAILED"
	case OpPipeHWM:
		return "PIPE_HWM"
	case OpPipePeerStats:
		return "PIPE_PEER_STATS"
	default:
		return "UNKNOWN"
	}
}

// Command targets an object by reference, never by raw pointer arithmetic:
// Arg carries whatever payload the Op needs (a *pipe.Pipe, a connection
// count, ...).
type Command struct {
	Op     Op
	Target any
	Arg    any
}

// Object is implemented by anything that owns a Mailbox and accepts
// cross-thread commands (Socket, Session, Engine, Reaper). Dispatch routes
// a Command to the matching method; an Op value outside the defined set
// panics (§9).
type Object interface {
	ProcessPlug(cmd Command)
	ProcessOwn(cmd Command)
	ProcessTerm(cmd Command)
	ProcessActivateRead(cmd Command)
	ProcessActivateWrite(cmd Command)
	ProcessHiccup(cmd Command)
	ProcessPipeTerm(cmd Command)
	ProcessPipeTermAck(cmd Command)
	ProcessAttach(cmd Command)
	ProcessBind(cmd Command)
	ProcessSeqnum(cmd Command)
	ProcessConnFailed(cmd Command)
	ProcessPipeHWM(cmd Command)
	ProcessPipePeerStats(cmd Command)
}

// Dispatch routes cmd to the matching Object method, panicking on an Op
// value outside the constants above.
func Dispatch(obj Object, cmd Command) {
	switch cmd.Op {
	case OpPlug:
		obj.ProcessPlug(cmd)
	case OpOwn:
		obj.ProcessOwn(cmd)
	case OpTerm:
		obj.ProcessTerm(cmd)
	case OpActivateRead:
		obj.ProcessActivateRead(cmd)
	case OpActivateWrite:
		obj.ProcessActivateWrite(cmd)
	case OpHiccup:
		obj.ProcessHiccup(cmd)
	case OpPipeTerm:
		obj.ProcessPipeTerm(cmd)
	case OpPipeTermAck:
		obj.ProcessPipeTermAck(cmd)
	case OpAttach:
		obj.ProcessAttach(cmd)
	case OpBind:
		obj.ProcessBind(cmd)
	case OpSeqnum:
		obj.ProcessSeqnum(cmd)
	case OpConnFailed:
		obj.ProcessConnFailed(cmd)
	case OpPipeHWM:
		obj.ProcessPipeHWM(cmd)
	case OpPipePeerStats:
		obj.ProcessPipePeerStats(cmd)
	default:
		panic("mailbox: unhandled command op " + cmd.Op.String())
	}
}
