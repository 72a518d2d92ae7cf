package zmtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGreetingRoundTrip(t *testing.T) {
	g := Default("NULL", true)

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(GreetingLen), n)
	require.Equal(t, GreetingLen, buf.Len())

	out := &Greeting{}
	err = out.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, MajorVersion, out.Major)
	require.Equal(t, MinorVersion, out.Minor)
	require.Equal(t, "NULL", out.Mechanism)
	require.True(t, out.AsServer)
}

func TestGreetingBadSignature(t *testing.T) {
	buf := make([]byte, GreetingLen)
	buf[0] = 0x00
	g := &Greeting{}
	require.ErrorIs(t, g.FromBytes(buf), ErrSignature)
}

func TestLegacyDetection(t *testing.T) {
	require.True(t, Legacy(0x01))
	require.False(t, Legacy(0xFF))
}
