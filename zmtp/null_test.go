package zmtp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullMechanismHandshake(t *testing.T) {
	client := &NullMechanism{SocketType: "DEALER"}
	server := &NullMechanism{SocketType: "ROUTER"}

	cmd, ok, err := client.NextHandshakeCommand()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "READY", cmd.Command)

	err = server.ProcessHandshakeCommand(cmd)
	require.NoError(t, err)
	require.Equal(t, StatusReady, server.Status())
	v, ok := server.Metadata().Get("Socket-Type")
	require.True(t, ok)
	require.Equal(t, "DEALER", v)

	// second READY is out of order
	err = server.ProcessHandshakeCommand(cmd)
	require.ErrorIs(t, err, ErrHandshake)
}

func TestNullMechanismOneShotNext(t *testing.T) {
	m := &NullMechanism{SocketType: "PUB"}
	_, ok, err := m.NextHandshakeCommand()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = m.NextHandshakeCommand()
	require.NoError(t, err)
	require.False(t, ok)
}
