package ypipe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	q.Write(1)
	q.Write(2)
	q.Write(3)
	q.Flush()

	for _, want := range []int{1, 2, 3} {
		v, ok := q.TryRead()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok := q.TryRead()
	require.False(t, ok)
}

// TestQueueWriteStagesUntilFlush is the central §4.1 Y-Pipe contract:
// write(v, incomplete=true) stages but does not publish; only flush()
// makes staged values visible, all at once.
func TestQueueWriteStagesUntilFlush(t *testing.T) {
	q := New[int]()
	q.Write(1)
	q.Write(2)

	_, ok := q.TryRead()
	require.False(t, ok, "unflushed writes must not be visible to a reader")
	require.Equal(t, 0, q.Len())

	q.Write(3)
	q.Flush()

	require.Equal(t, 3, q.Len())
	for _, want := range []int{1, 2, 3} {
		v, ok := q.TryRead()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

// TestQueueDiscardStaged is the Pipe-rollback guarantee (§4.2/§7): frames
// staged for an abandoned multipart group must never surface, even mixed
// into a later, unrelated Flush.
func TestQueueDiscardStaged(t *testing.T) {
	q := New[int]()
	q.Write(1)
	q.Write(2)
	q.DiscardStaged()

	q.Write(99)
	q.Flush()

	v, ok := q.TryRead()
	require.True(t, ok)
	require.Equal(t, 99, v)
	_, ok = q.TryRead()
	require.False(t, ok)
}

func TestQueueBlockingReadUnblocksOnFlush(t *testing.T) {
	q := New[string]()

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = q.Read()
	}()

	time.Sleep(10 * time.Millisecond)
	q.Write("hello")
	q.Flush()
	wg.Wait()

	require.True(t, ok)
	require.Equal(t, "hello", got)
}

func TestQueueCloseUnblocksReader(t *testing.T) {
	q := New[int]()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Read()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Close")
	}
}

func TestMPSCNotifiesOnWrite(t *testing.T) {
	var notified int
	m := NewMPSC[int](func() { notified++ })
	m.Write(1)
	m.Write(2)
	require.Equal(t, 2, notified)

	v, ok := m.TryRead()
	require.True(t, ok)
	require.Equal(t, 1, v)
}
