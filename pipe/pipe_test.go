package pipe

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/frame"
)

func TestPipeWriteReadSingleFrame(t *testing.T) {
	a, b := NewPair(10, 10, false, false)

	f := frame.New()
	f.SetBytes([]byte("hi"))
	require.NoError(t, a.Write(f, false))

	got, ok := b.Read()
	require.True(t, ok)
	require.Equal(t, []byte("hi"), got.Bytes())
	require.Equal(t, uint64(1), a.MsgsWritten())
	require.Equal(t, uint64(1), b.MsgsRead())
	require.Equal(t, uint64(1), a.PeersMsgsRead())
}

func TestPipeHWMBlocks(t *testing.T) {
	a, _ := NewPair(2, 2, false, false)

	f := frame.New()
	require.NoError(t, a.Write(f, false))
	require.NoError(t, a.Write(f, false))
	require.ErrorIs(t, a.Write(f, false), ErrWouldBlock)
}

func TestPipeHWMDrainsAfterRead(t *testing.T) {
	a, b := NewPair(1, 1, false, false)

	f := frame.New()
	require.NoError(t, a.Write(f, false))
	require.ErrorIs(t, a.Write(f, false), ErrWouldBlock)

	_, ok := b.Read()
	require.True(t, ok)
	require.NoError(t, a.Write(f, false))
}

func TestPipeConflateRejectsMore(t *testing.T) {
	a, _ := NewPair(10, 10, true, false)
	f := frame.New()
	require.ErrorIs(t, a.Write(f, true), ErrConflate)
}

func TestPipeTerminationHandshake(t *testing.T) {
	a, b := NewPair(10, 10, false, false)

	f := frame.New()
	f.SetBytes([]byte("last"))
	require.NoError(t, a.Write(f, false))

	a.Terminate(true)
	require.Equal(t, StateWaitingForDelimiter, a.State())

	got, ok := b.Read()
	require.True(t, ok)
	require.Equal(t, []byte("last"), got.Bytes())

	// next read consumes the delimiter, transitions b
	_, ok = b.Read()
	require.False(t, ok)
	require.Equal(t, StateDelimiterReceived, b.State())

	b.Terminate(true)
	require.Equal(t, StateTermAckSent, b.State())
}

func TestPipeWriteAfterTerminateFails(t *testing.T) {
	a, _ := NewPair(10, 10, false, false)
	a.Terminate(false)
	require.Equal(t, StateTermAckSent, a.State())

	f := frame.New()
	require.ErrorIs(t, a.Write(f, false), ErrTerminated)
}

type recordingEvents struct {
	readActivated, writeActivated, hiccuped, terminated int
}

func (r *recordingEvents) ReadActivated(*Pipe)  { r.readActivated++ }
func (r *recordingEvents) WriteActivated(*Pipe) { r.writeActivated++ }
func (r *recordingEvents) Hiccuped(*Pipe)       { r.hiccuped++ }
func (r *recordingEvents) Terminated(*Pipe)     { r.terminated++ }

func TestPipeEventsFire(t *testing.T) {
	a, b := NewPair(10, 10, false, false)
	evA, evB := &recordingEvents{}, &recordingEvents{}
	a.Events, b.Events = evA, evB

	f := frame.New()
	require.NoError(t, a.Write(f, false))
	require.Equal(t, 1, evB.readActivated)

	_, ok := b.Read()
	require.True(t, ok)
	require.Equal(t, 1, evA.writeActivated)

	a.Hiccup()
	require.Equal(t, 1, evA.hiccuped)
}
