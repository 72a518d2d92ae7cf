package zmtp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainMechanismHandshake(t *testing.T) {
	var gotUser, gotPass string
	server := &PlainMechanism{
		AsServer: true,
		Authenticate: func(u, p string) bool {
			gotUser, gotPass = u, p
			return u == "alice" && p == "s3cret"
		},
		SocketType: "ROUTER",
	}
	client := &PlainMechanism{Username: "alice", Password: "s3cret"}

	hello, ok, err := client.NextHandshakeCommand()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "HELLO", hello.Command)

	err = server.ProcessHandshakeCommand(hello)
	require.NoError(t, err)
	require.Equal(t, "alice", gotUser)
	require.Equal(t, "s3cret", gotPass)

	welcome, ok, err := server.NextHandshakeCommand()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "WELCOME", welcome.Command)

	err = client.ProcessHandshakeCommand(welcome)
	require.NoError(t, err)

	initiate, ok, err := client.NextHandshakeCommand()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "INITIATE", initiate.Command)

	err = server.ProcessHandshakeCommand(initiate)
	require.NoError(t, err)
	require.Equal(t, StatusReady, server.Status())
}

func TestPlainMechanismRejectsBadCredentials(t *testing.T) {
	server := &PlainMechanism{
		AsServer:     true,
		Authenticate: func(u, p string) bool { return false },
	}
	client := &PlainMechanism{Username: "bob", Password: "wrong"}

	hello, _, err := client.NextHandshakeCommand()
	require.NoError(t, err)

	err = server.ProcessHandshakeCommand(hello)
	require.ErrorIs(t, err, ErrCredential)
	require.Equal(t, StatusError, server.Status())
}
