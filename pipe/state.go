package pipe

// State is the pipe termination FSM (§4.2, §9), ported from the Active/
// DelimiterReceived/WaitingForDelimiter/TermAckSent states in the original
// pipe_t: each half of a Pipe runs this independently of its peer, the two
// only ever communicating through a delimiter frame in the data queue, not
// a shared state field.
type State int

const (
	StateActive State = iota
	StateDelimiterReceived
	StateWaitingForDelimiter
	StateTermAckSent
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateDelimiterReceived:
		return "DELIMITER_RECEIVED"
	case StateWaitingForDelimiter:
		return "WAITING_FOR_DELIMITER"
	case StateTermAckSent:
		return "TERM_ACK_SENT"
	default:
		return "UNKNOWN"
	}
}
