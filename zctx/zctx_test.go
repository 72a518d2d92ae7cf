package zctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/socket"
)

func TestContextPushPullOverTCP(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	ctx := New(DefaultConfig, nil)

	pull := ctx.NewSocket(socket.Pull, socket.Options{})
	lstn, err := ctx.Bind(pull, "tcp://127.0.0.1:0")
	require.NoError(t, err)

	push := ctx.NewSocket(socket.Push, socket.Options{})
	require.NoError(t, ctx.Connect(push, "tcp://"+lstn.Addr().String()))

	require.NoError(t, push.Send([]*frame.Frame{frame.New().SetBytes([]byte("hi"))}))

	var got []*frame.Frame
	require.Eventually(t, func() bool {
		got, err = pull.Recv()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.Len(t, got, 1)
	require.Equal(t, "hi", string(got[0].Bytes()))

	ctx.Terminate()
}

func TestInprocEndpointRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	ctx := New(Config{IOThreads: 1}, nil)

	pull := ctx.NewSocket(socket.Pull, socket.Options{})
	_, err := ctx.Bind(pull, "inproc://test-endpoint")
	require.NoError(t, err)

	push := ctx.NewSocket(socket.Push, socket.Options{})
	require.NoError(t, ctx.Connect(push, "inproc://test-endpoint"))

	require.NoError(t, push.Send([]*frame.Frame{frame.New().SetBytes([]byte("yo"))}))

	var got []*frame.Frame
	require.Eventually(t, func() bool {
		got, err = pull.Recv()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "yo", string(got[0].Bytes()))

	ctx.Terminate()
}
