package util

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCopyThroughBridgesBothDirections(t *testing.T) {
	lhsA, lhsB := net.Pipe()
	rhsA, rhsB := net.Pipe()

	done := make(chan struct{})
	go func() {
		CopyThrough(lhsB, rhsB)
		close(done)
	}()

	_, err := lhsA.Write([]byte("to-rhs"))
	require.NoError(t, err)
	buf := make([]byte, 6)
	_, err = io.ReadFull(rhsA, buf)
	require.NoError(t, err)
	require.Equal(t, "to-rhs", string(buf))

	_, err = rhsA.Write([]byte("to-lhs"))
	require.NoError(t, err)
	_, err = io.ReadFull(lhsA, buf)
	require.NoError(t, err)
	require.Equal(t, "to-lhs", string(buf))

	lhsA.Close()
	rhsA.Close()
	<-done
}
