package socket

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/frame"
)

// fakePipe is a minimal Pipe whose Read drains a preloaded slice, letting
// tests simulate a frame arriving before the rest of its multipart group.
type fakePipe struct {
	queued []*frame.Frame
}

func (p *fakePipe) Write(*frame.Frame, bool) error { return nil }
func (p *fakePipe) CheckWrite() bool               { return true }
func (p *fakePipe) Terminate(bool)                 {}
func (p *fakePipe) Read() (*frame.Frame, bool) {
	if len(p.queued) == 0 {
		return nil, false
	}
	f := p.queued[0]
	p.queued = p.queued[1:]
	return f, true
}

func (p *fakePipe) push(more bool) {
	f := frame.New()
	if more {
		f.Flags |= frame.FlagMore
	}
	p.queued = append(p.queued, f)
}

func TestFairQueueRecvWholeGroup(t *testing.T) {
	p := &fakePipe{}
	p.push(true)
	p.push(true)
	p.push(false)

	var q fairQueue
	q.attach(p)

	parts, got, ok := q.recv()
	require.True(t, ok)
	require.Same(t, p, got)
	require.Len(t, parts, 3)
}

// TestFairQueueRecvDoesNotSpinOnPartialGroup is Testable Property 4/3's
// other half: a group only partially written must return ok=false without
// looping, and the frames already read must not be dropped.
func TestFairQueueRecvDoesNotSpinOnPartialGroup(t *testing.T) {
	p := &fakePipe{}
	p.push(true) // first frame of the group arrives...
	// ...the rest hasn't been written yet.

	var q fairQueue
	q.attach(p)

	parts, _, ok := q.recv()
	require.False(t, ok)
	require.Nil(t, parts)

	// Still nothing new: must keep returning immediately, not spin.
	_, _, ok = q.recv()
	require.False(t, ok)

	// The rest of the group arrives later.
	p.push(true)
	p.push(false)

	parts, got, ok := q.recv()
	require.True(t, ok)
	require.Same(t, p, got)
	require.Len(t, parts, 3)
}

func TestFairQueueDetachClearsPendingGroup(t *testing.T) {
	p := &fakePipe{}
	p.push(true)

	var q fairQueue
	q.attach(p)
	_, _, ok := q.recv()
	require.False(t, ok)
	require.NotNil(t, q.pendingPipe)

	q.detach(p)
	require.Nil(t, q.pendingPipe)
	require.Nil(t, q.pending)
}
