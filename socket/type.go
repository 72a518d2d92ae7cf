package socket

// Type tags the twelve socket patterns named in §1/§4.3. Draft types
// (Server/Client, Radio/Dish, Scatter/Gather, Peer) mirror libzmq's
// draft-API socket classes restored from original_source (server.rs,
// radio.rs, dish.rs, scatter.rs, gather.rs, peer.rs).
type Type int

const (
	Pair Type = iota
	Push
	Pull
	Pub
	Sub
	XPub
	XSub
	Req
	Rep
	Dealer
	Router
	Stream
	Server
	Client
	Radio
	Dish
	Scatter
	Gather
	Dgram
	Peer
)

func (t Type) String() string {
	switch t {
	case Pair:
		return "PAIR"
	case Push:
		return "PUSH"
	case Pull:
		return "PULL"
	case Pub:
		return "PUB"
	case Sub:
		return "SUB"
	case XPub:
		return "XPUB"
	case XSub:
		return "XSUB"
	case Req:
		return "REQ"
	case Rep:
		return "REP"
	case Dealer:
		return "DEALER"
	case Router:
		return "ROUTER"
	case Stream:
		return "STREAM"
	case Server:
		return "SERVER"
	case Client:
		return "CLIENT"
	case Radio:
		return "RADIO"
	case Dish:
		return "DISH"
	case Scatter:
		return "SCATTER"
	case Gather:
		return "GATHER"
	case Dgram:
		return "DGRAM"
	case Peer:
		return "PEER"
	default:
		return "?"
	}
}

// ThreadSafe reports whether instances of t may be called concurrently
// from multiple goroutines (§5): for these draft types Socket takes its
// mutex around every Send/Recv rather than relying on the
// single-owner-thread discipline classic types require.
func (t Type) ThreadSafe() bool {
	switch t {
	case Server, Client, Radio, Dish, Scatter, Gather, Peer:
		return true
	default:
		return false
	}
}
