package socket

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/pipe"
)

func attach(t *testing.T, sa, sb *Socket) {
	t.Helper()
	a, b := pipe.NewPair(1000, 1000, false, false)
	sa.AttachPipe(a, nil)
	sb.AttachPipe(b, nil)
}

func msg(s string) []*frame.Frame {
	return []*frame.Frame{frame.New().SetBytes([]byte(s))}
}

func body(t *testing.T, parts []*frame.Frame) string {
	t.Helper()
	require.Len(t, parts, 1)
	return string(parts[0].Bytes())
}

func TestPairEchoOverPipe(t *testing.T) {
	a := New(Pair, Options{})
	b := New(Pair, Options{})
	attach(t, a, b)

	require.NoError(t, a.Send(msg("hi")))
	got, err := b.Recv()
	require.NoError(t, err)
	require.Equal(t, "hi", body(t, got))

	require.NoError(t, b.Send(msg("ok")))
	got, err = a.Recv()
	require.NoError(t, err)
	require.Equal(t, "ok", body(t, got))
}

func TestPushPullLoadBalances(t *testing.T) {
	push := New(Push, Options{})
	pull1 := New(Pull, Options{})
	pull2 := New(Pull, Options{})
	attach(t, push, pull1)
	attach(t, push, pull2)

	for i := 0; i < 10; i++ {
		require.NoError(t, push.Send(msg("x")))
	}

	n1, n2 := 0, 0
	for {
		if _, err := pull1.Recv(); err == nil {
			n1++
		} else {
			break
		}
	}
	for {
		if _, err := pull2.Recv(); err == nil {
			n2++
		} else {
			break
		}
	}
	require.Equal(t, 5, n1)
	require.Equal(t, 5, n2)
}

func TestPubSubPrefixFilter(t *testing.T) {
	pub := New(Pub, Options{})
	sub := New(Sub, Options{})
	require.NoError(t, sub.SetOption(OptSubscribe, "topic/a"))

	pa, pb := pipe.NewPair(1000, 1000, false, false)
	pub.AttachPipe(pa, nil)
	sub.AttachPipe(pb, nil) // writes the SUBSCRIBE control frame to pa

	// let PUB observe the SUBSCRIBE control frame written by attach
	pub.Pattern.ReadActivated(pa)

	require.NoError(t, pub.Send(msg("topic/a/1")))
	require.NoError(t, pub.Send(msg("topic/b/2")))
	require.NoError(t, pub.Send(msg("topic/a/3")))

	got, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, "topic/a/1", body(t, got))

	got, err = sub.Recv()
	require.NoError(t, err)
	require.Equal(t, "topic/a/3", body(t, got))

	_, err = sub.Recv()
	require.ErrorIs(t, err, ErrAgain)
}

func TestReqRepStrictAlternation(t *testing.T) {
	req := New(Req, Options{})
	rep := New(Rep, Options{})
	attach(t, req, rep)

	require.NoError(t, req.Send(msg("q1")))

	in, err := rep.Recv()
	require.NoError(t, err)
	require.Equal(t, "q1", body(t, in))

	require.NoError(t, rep.Send(msg("r1")))

	out, err := req.Recv()
	require.NoError(t, err)
	require.Equal(t, "r1", body(t, out))

	// a second send before recv fails FSM
	require.NoError(t, req.Send(msg("q2")))
	err = req.Send(msg("q3"))
	require.ErrorIs(t, err, ErrFSM)
}

func TestHWMBlocksThenUnblocks(t *testing.T) {
	push := New(Push, Options{})
	pull := New(Pull, Options{})
	a, b := pipe.NewPair(2, 2, false, false)
	push.AttachPipe(a, nil)
	pull.AttachPipe(b, nil)

	require.NoError(t, push.Send(msg("1")))
	require.NoError(t, push.Send(msg("2")))
	err := push.Send(msg("3"))
	require.ErrorIs(t, err, ErrAgain)

	_, err = pull.Recv()
	require.NoError(t, err)

	require.NoError(t, push.Send(msg("3")))
}
