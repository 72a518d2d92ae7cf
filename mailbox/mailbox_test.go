package mailbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []Op
}

func (r *recorder) record(cmd Command) { r.calls = append(r.calls, cmd.Op) }

func (r *recorder) ProcessPlug(cmd Command)            { r.record(cmd) }
func (r *recorder) ProcessOwn(cmd Command)             { r.record(cmd) }
func (r *recorder) ProcessTerm(cmd Command)            { r.record(cmd) }
func (r *recorder) ProcessActivateRead(cmd Command)    { r.record(cmd) }
func (r *recorder) ProcessActivateWrite(cmd Command)   { r.record(cmd) }
func (r *recorder) ProcessHiccup(cmd Command)          { r.record(cmd) }
func (r *recorder) ProcessPipeTerm(cmd Command)        { r.record(cmd) }
func (r *recorder) ProcessPipeTermAck(cmd Command)     { r.record(cmd) }
func (r *recorder) ProcessAttach(cmd Command)          { r.record(cmd) }
func (r *recorder) ProcessBind(cmd Command)            { r.record(cmd) }
func (r *recorder) ProcessSeqnum(cmd Command)          { r.record(cmd) }
func (r *recorder) ProcessConnFailed(cmd Command)      { r.record(cmd) }
func (r *recorder) ProcessPipeHWM(cmd Command)         { r.record(cmd) }
func (r *recorder) ProcessPipePeerStats(cmd Command)   { r.record(cmd) }

func TestMailboxSendReceiveDispatch(t *testing.T) {
	mb := New(4)
	require.NoError(t, mb.Send(Command{Op: OpActivateRead}))
	require.NoError(t, mb.Send(Command{Op: OpHiccup}))

	r := &recorder{}
	Dispatch(r, <-mb.Chan())
	Dispatch(r, <-mb.Chan())

	require.Equal(t, []Op{OpActivateRead, OpHiccup}, r.calls)
}

func TestMailboxSendAfterCloseFails(t *testing.T) {
	mb := New(1)
	mb.Close()
	err := mb.Send(Command{Op: OpTerm})
	require.ErrorIs(t, err, ErrClosed)
}

func TestDispatchPanicsOnUnknownOp(t *testing.T) {
	r := &recorder{}
	require.Panics(t, func() {
		Dispatch(r, Command{Op: Op(999)})
	})
}

func TestTrySendFullMailbox(t *testing.T) {
	mb := New(1)
	require.True(t, mb.TrySend(Command{Op: OpBind}))
	require.False(t, mb.TrySend(Command{Op: OpBind}))
}
