package reactor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zmtpfix/zmtpfix/mailbox"
)

type countingHandler struct {
	in, out int32
	errs    int32
	wg      *sync.WaitGroup
}

func (h *countingHandler) InEvent() {
	atomic.AddInt32(&h.in, 1)
	if h.wg != nil {
		h.wg.Done()
	}
}
func (h *countingHandler) OutEvent()          { atomic.AddInt32(&h.out, 1) }
func (h *countingHandler) ErrorEvent(error)    { atomic.AddInt32(&h.errs, 1) }

func TestReactorTimerFires(t *testing.T) {
	r := New(8)
	r.Start("t")
	defer r.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	h := &countingHandler{wg: &wg}
	r.AddTimer(5, 1, h)

	waitOrFail(t, &wg, time.Second)
	require.Equal(t, int32(1), atomic.LoadInt32(&h.in))
}

func TestReactorCancelTimerPreventsFire(t *testing.T) {
	r := New(8)
	r.Start("t")
	defer r.Stop()

	h := &countingHandler{}
	handle := r.AddTimer(50, 1, h)
	r.CancelTimer(handle)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&h.in))
}

func TestReactorNotifyDispatchesToHandler(t *testing.T) {
	r := New(8)
	r.Start("t")
	defer r.Stop()

	h := &countingHandler{}
	handle := r.AddConn(nil, h)

	var wg sync.WaitGroup
	wg.Add(1)
	h.wg = &wg
	r.Notify(handle, true, false, nil)

	waitOrFail(t, &wg, time.Second)
	require.Equal(t, int32(1), atomic.LoadInt32(&h.in))
}

func TestReactorRetiredHandleIsSkipped(t *testing.T) {
	r := New(8)
	r.Start("t")
	defer r.Stop()

	h := &countingHandler{}
	handle := r.AddConn(nil, h)
	r.RmConn(handle)
	r.Notify(handle, true, false, nil)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&h.in))
}

func TestReactorMailboxDispatch(t *testing.T) {
	r := New(8)
	r.Start("t")
	defer r.Stop()

	rec := &recordingObject{done: make(chan struct{}, 1)}
	require.NoError(t, r.Mailbox().Send(mailbox.Command{Op: mailbox.OpHiccup, Target: rec}))

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("mailbox command was not dispatched")
	}
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	ch := make(chan struct{})
	go func() { wg.Wait(); close(ch) }()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatal("timed out waiting")
	}
}

type recordingObject struct {
	done chan struct{}
}

func (r *recordingObject) ProcessPlug(mailbox.Command)          {}
func (r *recordingObject) ProcessOwn(mailbox.Command)           {}
func (r *recordingObject) ProcessTerm(mailbox.Command)          {}
func (r *recordingObject) ProcessActivateRead(mailbox.Command)  {}
func (r *recordingObject) ProcessActivateWrite(mailbox.Command) {}
func (r *recordingObject) ProcessHiccup(mailbox.Command)        { r.done <- struct{}{} }
func (r *recordingObject) ProcessPipeTerm(mailbox.Command)      {}
func (r *recordingObject) ProcessPipeTermAck(mailbox.Command)   {}
func (r *recordingObject) ProcessAttach(mailbox.Command)        {}
func (r *recordingObject) ProcessBind(mailbox.Command)          {}
func (r *recordingObject) ProcessSeqnum(mailbox.Command)        {}
func (r *recordingObject) ProcessConnFailed(mailbox.Command)    {}
func (r *recordingObject) ProcessPipeHWM(mailbox.Command)       {}
func (r *recordingObject) ProcessPipePeerStats(mailbox.Command) {}
