package transport

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	ep, err := Parse("tcp://127.0.0.1:5555")
	require.NoError(t, err)
	require.Equal(t, TCP, ep.Scheme)
	require.Equal(t, "127.0.0.1:5555", ep.Address)

	_, err = Parse("not-an-endpoint")
	require.ErrorIs(t, err, ErrBadEndpoint)

	_, err = Parse("bogus://x")
	require.ErrorIs(t, err, ErrBadEndpoint)
}

func TestTCPListenDialRoundTrip(t *testing.T) {
	lstn, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer lstn.Close()

	accepted := make(chan error, 1)
	go func() {
		c, err := lstn.Accept()
		if err != nil {
			accepted <- err
			return
		}
		buf := make([]byte, 5)
		_, err = io.ReadFull(c, buf)
		accepted <- err
	}()

	conn, err := Dial(lstn.Addr().String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	require.NoError(t, <-accepted)
}

func TestIPCListenDialRoundTrip(t *testing.T) {
	path := t.TempDir() + "/zmtpfix-test.sock"
	lstn, err := ListenIPC(path)
	require.NoError(t, err)
	defer lstn.Close()

	accepted := make(chan error, 1)
	go func() {
		c, err := lstn.Accept()
		if err != nil {
			accepted <- err
			return
		}
		buf := make([]byte, 2)
		_, err = io.ReadFull(c, buf)
		accepted <- err
	}()

	conn, err := DialIPC(path)
	require.NoError(t, err)
	_, err = conn.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, <-accepted)
}

func TestInprocBindThenConnect(t *testing.T) {
	reg := NewInprocRegistry()
	lstn, err := reg.Bind("svc")
	require.NoError(t, err)
	defer lstn.Close()

	go func() {
		conn, err := reg.Connect("svc")
		require.NoError(t, err)
		_, _ = conn.Write([]byte("ping"))
	}()

	server, err := lstn.Accept()
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))
}

func TestInprocConnectBeforeBind(t *testing.T) {
	reg := NewInprocRegistry()

	connErr := make(chan error, 1)
	var client interface {
		Write([]byte) (int, error)
	}
	go func() {
		c, err := reg.Connect("late")
		if err == nil {
			client = c
			_, _ = c.Write([]byte("x"))
		}
		connErr <- err
	}()

	time.Sleep(10 * time.Millisecond) // let Connect queue before Bind claims it
	lstn, err := reg.Bind("late")
	require.NoError(t, err)
	defer lstn.Close()

	server, err := lstn.Accept()
	require.NoError(t, err)
	require.NoError(t, <-connErr)
	require.NotNil(t, client)
	buf := make([]byte, 1)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
}
