package socket

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"
)

// OptID names one entry of the §6 per-socket option table. Kept as a plain
// int enum with a hand-written String(), not a generated stringer (see
// DESIGN.md on github.com/dmarkham/enumer, the teacher's codegen dependency
// for this kind of enum, left unwired here).
type OptID int

const (
	OptHWMSnd OptID = iota
	OptHWMRcv
	OptLinger
	OptReconnectIvl
	OptReconnectIvlMax
	OptBacklog
	OptMaxMsgSize
	OptAffinity
	OptRoutingID
	OptSubscribe
	OptUnsubscribe
	OptRate
	OptRecoveryIvl
	OptSndBuf
	OptRcvBuf
	OptRcvMore    // read-only
	OptFD         // read-only
	OptEvents     // read-only
	OptType       // read-only
	OptTCPKeepAlive
	OptTCPKeepAliveCnt
	OptTCPKeepAliveIdle
	OptTCPKeepAliveIntvl
	OptImmediate
	OptXPubVerbose
	OptRouterRaw
	OptRouterMandatory
	OptRouterHandover
	OptIPv6
	OptMechanism
	OptPlainServer
	OptPlainUsername
	OptPlainPassword
	OptCurveServer
	OptCurvePublicKey
	OptCurveSecretKey
	OptCurveServerKey
	OptProbeRouter
	OptReqCorrelate
	OptReqRelaxed
	OptConflate
	OptZapDomain
	OptHandshakeIvl
	OptHeartbeatIvl
	OptHeartbeatTTL
	OptHeartbeatTimeout
	OptConnectRoutingID
	OptHelloMsg
	OptDisconnectMsg
	OptWelcomeMsg
	OptXPubManual
	OptXPubVerboseUnsubscribe
)

// readOnly is consulted by Options.Set before any coercion happens.
var readOnly = map[OptID]bool{
	OptRcvMore: true,
	OptFD:      true,
	OptEvents:  true,
	OptType:    true,
}

// DefaultOptions mirrors libzmq's built-in defaults, the way bgpfix's
// pipe.DefaultOptions/speaker.DefaultOptions seed a Logger and a handful
// of numeric defaults.
var DefaultOptions = Options{
	Logger:           &log.Logger,
	HWMSnd:           1000,
	HWMRcv:           1000,
	Linger:           30 * time.Second,
	ReconnectIvl:     100 * time.Millisecond,
	ReconnectIvlMax:  0,
	Backlog:          100,
	HandshakeIvl:     30 * time.Second,
	ReqCorrelate:     false,
	ReqRelaxed:       false,
}

// Options holds a socket's per-instance configuration (§6). Mutation goes
// through Set so every option gets the same validation/coercion path
// (spf13/cast, the way bgpfix's Callback/Handler tables are assembled
// through one shared constructor rather than ad-hoc field writes).
type Options struct {
	Logger *zerolog.Logger // if nil, logging is disabled

	HWMSnd, HWMRcv             int
	Linger                     time.Duration // -1 = infinite
	ReconnectIvl, ReconnectIvlMax time.Duration
	Backlog                    int
	MaxMsgSize                 int64
	Affinity                   uint64
	RoutingID                  []byte
	Rate                       int // kbit/s, feeds a rate.Limiter
	RecoveryIvl                time.Duration
	SndBuf, RcvBuf             int

	TCPKeepAlive      int // -1 default, 0 off, 1 on
	TCPKeepAliveCnt   int
	TCPKeepAliveIdle  time.Duration
	TCPKeepAliveIntvl time.Duration

	Immediate bool

	XPubVerbose      bool
	RouterRaw        bool
	RouterMandatory  bool
	RouterHandover   bool
	IPv6             bool

	Mechanism     string
	PlainServer   bool
	PlainUsername string
	PlainPassword string

	CurveServer   bool
	CurvePublicKey []byte
	CurveSecretKey []byte
	CurveServerKey []byte

	ProbeRouter bool

	ReqCorrelate bool
	ReqRelaxed   bool

	Conflate bool

	ZapDomain string

	HandshakeIvl time.Duration

	HeartbeatIvl     time.Duration
	HeartbeatTTL     time.Duration
	HeartbeatTimeout time.Duration

	ConnectRoutingID []byte
	HelloMsg         [][]byte
	DisconnectMsg    [][]byte

	// subscriptions set/cleared via Set(OptSubscribe/OptUnsubscribe, prefix)
	Subscribe   [][]byte
	Unsubscribe [][]byte

	limiter *rate.Limiter
}

// Limiter lazily builds (or rebuilds, on Rate change) the token-bucket
// throttle used by PUSH/PUB-style sends, the way bgpfix's
// Callback.LimitRate gates callback invocation rate.
func (o *Options) Limiter() *rate.Limiter {
	if o.Rate <= 0 {
		return nil
	}
	if o.limiter == nil {
		o.limiter = rate.NewLimiter(rate.Limit(o.Rate*1000/8), o.Rate*1000/8)
	}
	return o.limiter
}

// Set coerces value into the field named by id, matching the §6 validation
// rules: a fixed-size integral option rejects a value that cannot coerce
// (EINVAL), a read-only option always rejects Set (EINVAL), and an option
// incompatible with typ rejects too.
func (o *Options) Set(typ Type, id OptID, value any) error {
	if readOnly[id] {
		return ErrInvalid
	}
	if err := checkCompat(typ, id); err != nil {
		return err
	}

	switch id {
	case OptHWMSnd:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.HWMSnd = v
	case OptHWMRcv:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.HWMRcv = v
	case OptLinger:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		if ms < 0 {
			o.Linger = -1
		} else {
			o.Linger = time.Duration(ms) * time.Millisecond
		}
	case OptReconnectIvl:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.ReconnectIvl = time.Duration(ms) * time.Millisecond
	case OptReconnectIvlMax:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.ReconnectIvlMax = time.Duration(ms) * time.Millisecond
	case OptBacklog:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.Backlog = v
	case OptMaxMsgSize:
		v, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.MaxMsgSize = v
	case OptAffinity:
		v, err := cast.ToUint64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.Affinity = v
	case OptRoutingID:
		b, err := toBytes(value)
		if err != nil || len(b) > 255 {
			return ErrInvalid
		}
		o.RoutingID = b
	case OptSubscribe:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.Subscribe = append(o.Subscribe, b)
	case OptUnsubscribe:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.Unsubscribe = append(o.Unsubscribe, b)
	case OptRate:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.Rate = v
		o.limiter = nil
	case OptRecoveryIvl:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.RecoveryIvl = time.Duration(ms) * time.Millisecond
	case OptSndBuf:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.SndBuf = v
	case OptRcvBuf:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.RcvBuf = v
	case OptTCPKeepAlive:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.TCPKeepAlive = v
	case OptTCPKeepAliveCnt:
		v, err := cast.ToIntE(value)
		if err != nil {
			return ErrInvalid
		}
		o.TCPKeepAliveCnt = v
	case OptTCPKeepAliveIdle:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.TCPKeepAliveIdle = time.Duration(ms) * time.Millisecond
	case OptTCPKeepAliveIntvl:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.TCPKeepAliveIntvl = time.Duration(ms) * time.Millisecond
	case OptImmediate:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.Immediate = v
	case OptXPubVerbose:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.XPubVerbose = v
	case OptRouterRaw:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.RouterRaw = v
	case OptRouterMandatory:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.RouterMandatory = v
	case OptRouterHandover:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.RouterHandover = v
	case OptIPv6:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.IPv6 = v
	case OptMechanism:
		v, err := cast.ToStringE(value)
		if err != nil {
			return ErrInvalid
		}
		o.Mechanism = v
	case OptPlainServer:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.PlainServer = v
	case OptPlainUsername:
		v, err := cast.ToStringE(value)
		if err != nil {
			return ErrInvalid
		}
		o.PlainUsername = v
	case OptPlainPassword:
		v, err := cast.ToStringE(value)
		if err != nil {
			return ErrInvalid
		}
		o.PlainPassword = v
	case OptCurveServer:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.CurveServer = v
	case OptCurvePublicKey:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.CurvePublicKey = b
	case OptCurveSecretKey:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.CurveSecretKey = b
	case OptCurveServerKey:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.CurveServerKey = b
	case OptProbeRouter:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.ProbeRouter = v
	case OptReqCorrelate:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.ReqCorrelate = v
	case OptReqRelaxed:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.ReqRelaxed = v
	case OptConflate:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return ErrInvalid
		}
		o.Conflate = v
	case OptZapDomain:
		v, err := cast.ToStringE(value)
		if err != nil || len(v) > 255 {
			return ErrInvalid
		}
		o.ZapDomain = v
	case OptHandshakeIvl:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.HandshakeIvl = time.Duration(ms) * time.Millisecond
	case OptHeartbeatIvl:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.HeartbeatIvl = time.Duration(ms) * time.Millisecond
	case OptHeartbeatTTL:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.HeartbeatTTL = time.Duration(ms) * time.Millisecond
	case OptHeartbeatTimeout:
		ms, err := cast.ToInt64E(value)
		if err != nil {
			return ErrInvalid
		}
		o.HeartbeatTimeout = time.Duration(ms) * time.Millisecond
	case OptConnectRoutingID:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.ConnectRoutingID = b
	case OptHelloMsg:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.HelloMsg = append(o.HelloMsg, b)
	case OptDisconnectMsg:
		b, err := toBytes(value)
		if err != nil {
			return ErrInvalid
		}
		o.DisconnectMsg = append(o.DisconnectMsg, b)
	case OptWelcomeMsg, OptXPubManual, OptXPubVerboseUnsubscribe:
		// applied, without further validation, by xpubPattern.ApplyOption; Options has no
		// typed field for these since they are XPUB-only policy toggles,
		// not process-wide state.
	default:
		return ErrInvalid
	}
	return nil
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		s, err := cast.ToStringE(value)
		return []byte(s), err
	}
}

// checkCompat rejects options incompatible with typ (§6: "options
// incompatible with the socket type reject with EINVAL").
func checkCompat(typ Type, id OptID) error {
	switch id {
	case OptSubscribe, OptUnsubscribe:
		if typ != Sub && typ != XSub {
			return ErrInvalid
		}
	case OptRouterRaw, OptRouterMandatory, OptRouterHandover, OptProbeRouter, OptConnectRoutingID:
		if typ != Router {
			return ErrInvalid
		}
	case OptReqCorrelate, OptReqRelaxed:
		if typ != Req {
			return ErrInvalid
		}
	case OptXPubVerbose, OptWelcomeMsg, OptXPubManual, OptXPubVerboseUnsubscribe:
		if typ != XPub {
			return ErrInvalid
		}
	}
	return nil
}
