package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTripShort(t *testing.T) {
	f := New()
	f.SetBytes([]byte("hello"))
	f.Flags = FlagMore

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	out := New()
	off, err := out.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, buf.Len(), off)
	require.Equal(t, []byte("hello"), out.Bytes())
	require.True(t, out.Flags.Has(FlagMore))
}

func TestFrameRoundTripLong(t *testing.T) {
	body := bytes.Repeat([]byte{0x42}, 300)
	f := New()
	f.SetBytes(body)

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	out := New()
	off, err := out.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, buf.Len(), off)
	require.Equal(t, body, out.Bytes())
}

func TestFrameCommandRoundTrip(t *testing.T) {
	f := New()
	f.Flags = FlagCommand
	f.Command = "PING"
	f.SetBytes([]byte{0x00, 0x0a})

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	out := New()
	_, err = out.FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.True(t, out.Flags.Has(FlagCommand))
	require.Equal(t, "PING", out.Command)
	require.Equal(t, []byte{0x00, 0x0a}, out.Bytes())
}

func TestFrameFromBytesShortBuffer(t *testing.T) {
	f := New()
	_, err := f.FromBytes([]byte{0x00})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrameCloneSharesHeap(t *testing.T) {
	body := bytes.Repeat([]byte{0x01}, 100)
	f := New()
	f.SetBytes(body)
	f.Command = "unused"

	c := f.Clone()
	require.True(t, f.Flags.Has(FlagShared))
	require.True(t, c.Flags.Has(FlagShared))
	require.Equal(t, f.Bytes(), c.Bytes())
	require.Equal(t, f.Command, c.Command)
}

func TestDelimiterNeverMatchesEmptyFrame(t *testing.T) {
	empty := New()
	empty.SetBytes(nil)
	require.False(t, empty.IsDelimiter())

	d := Delimiter()
	require.True(t, d.IsDelimiter())
}
