package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/frame"
	"github.com/zmtpfix/zmtpfix/reactor"
	"github.com/zmtpfix/zmtpfix/zmtp"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := Backoff{Ivl: 100 * time.Millisecond, IvlMax: 800 * time.Millisecond}
	bases := []time.Duration{100, 200, 400, 800, 800}
	for _, base := range bases {
		base *= time.Millisecond
		delay := b.Next()
		require.GreaterOrEqual(t, delay, base)
		require.LessOrEqual(t, delay, base+b.Ivl)
	}
}

func TestBackoffStopAfterDisconnectOnlyAfterSuccess(t *testing.T) {
	b := Backoff{Ivl: time.Millisecond, StopAfterDisconnect: true}
	require.False(t, b.Stop())
	b.Connected()
	require.True(t, b.Stop())
}

func TestHelloMsgTransformFiresOnce(t *testing.T) {
	h := newHelloMsgTransform([][]byte{[]byte("hi")})
	first := h.Hello()
	require.Len(t, first, 1)
	require.Equal(t, "hi", string(first[0].Bytes()))
	require.Nil(t, h.Hello())
}

func TestRadioDishGroupRoundTrip(t *testing.T) {
	body := frame.New().SetBytes([]byte("payload"))
	body.Group = "weather"

	out := (radioTransform{}).Outbound([]*frame.Frame{body})
	require.Len(t, out, 2)
	require.Equal(t, "weather", string(out[0].Bytes()))

	in := (dishTransform{}).Inbound(out)
	require.Len(t, in, 1)
	require.Equal(t, "weather", in[0].Group)
	require.Equal(t, "payload", string(in[0].Bytes()))
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

func TestEngineHandshakeAndFrameOverNetPipe(t *testing.T) {
	r := reactor.New(16)
	r.Start("t")
	defer r.Stop()

	clientConn, serverConn := net.Pipe()

	serverDone := make(chan struct{}, 1)
	clientDone := make(chan struct{}, 1)
	var serverFrames [][]byte

	serverEngine := NewEngine(serverConn, r, EngineConfig{
		AsServer:  true,
		Mechanism: &zmtp.NullMechanism{SocketType: "PULL"},
		OnReady:   func(*frame.Metadata) { serverDone <- struct{}{} },
		OnFrames: func(parts []*frame.Frame) {
			for _, f := range parts {
				serverFrames = append(serverFrames, append([]byte(nil), f.Bytes()...))
			}
		},
	}, nil)

	clientEngine := NewEngine(clientConn, r, EngineConfig{
		AsServer:  false,
		Mechanism: &zmtp.NullMechanism{SocketType: "PUSH"},
		OnReady:   func(*frame.Metadata) { clientDone <- struct{}{} },
	}, nil)

	go serverEngine.Start()
	go clientEngine.Start()

	waitSignal(t, serverDone)
	waitSignal(t, clientDone)

	require.NoError(t, clientEngine.SendMessage([]*frame.Frame{frame.New().SetBytes([]byte("hello"))}))

	require.Eventually(t, func() bool {
		return len(serverFrames) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "hello", string(serverFrames[0]))
}
