package zmtp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/frame"
)

func TestEncodeDecodeMessage(t *testing.T) {
	a := frame.New()
	a.SetBytes([]byte("part-a"))
	b := frame.New()
	b.SetBytes([]byte("part-b"))

	var buf bytes.Buffer
	var enc Encoder
	_, err := enc.WriteMessage(&buf, []*frame.Frame{a, b})
	require.NoError(t, err)

	var dec Decoder
	_, err = dec.Write(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, dec.Pending())

	f1, ok := dec.Next()
	require.True(t, ok)
	require.Equal(t, []byte("part-a"), f1.Bytes())
	require.True(t, f1.Flags.Has(frame.FlagMore))

	f2, ok := dec.Next()
	require.True(t, ok)
	require.Equal(t, []byte("part-b"), f2.Bytes())
	require.False(t, f2.Flags.Has(frame.FlagMore))

	_, ok = dec.Next()
	require.False(t, ok)
}

func TestDecoderBuffersPartialWrites(t *testing.T) {
	f := frame.New()
	f.SetBytes([]byte("hello world"))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	full := buf.Bytes()
	var dec Decoder

	_, err = dec.Write(full[:3])
	require.NoError(t, err)
	require.Equal(t, 0, dec.Pending())

	_, err = dec.Write(full[3:])
	require.NoError(t, err)
	require.Equal(t, 1, dec.Pending())

	out, ok := dec.Next()
	require.True(t, ok)
	require.Equal(t, []byte("hello world"), out.Bytes())
}
