package socket

import "github.com/zmtpfix/zmtpfix/frame"

// fairQueue is the round-robin inbound arbiter shared by PULL, DEALER,
// ROUTER, SUB, XSUB, REP, STREAM and the draft receive-side patterns
// (PUB and XPUB read their pipes directly) (§4.3): "round-robin
// over pipes that have frames, consuming a full message (all MORE frames)
// from the current pipe before advancing."
type fairQueue struct {
	pipes  []Pipe
	cursor int

	// pendingPipe/pending hold a multipart group still being drained when a
	// prior recv() call found the next frame not yet available: a Pipe
	// never interleaves groups (Testable Property 3), so once any frame of
	// a group is read the rest belongs to this same pipe and must be
	// finished before fairQueue moves on, without re-scanning from cursor.
	pendingPipe Pipe
	pending     []*frame.Frame
}

func (q *fairQueue) attach(p Pipe) {
	q.pipes = append(q.pipes, p)
}

func (q *fairQueue) detach(p Pipe) {
	for i, pp := range q.pipes {
		if pp == p {
			q.pipes = append(q.pipes[:i], q.pipes[i+1:]...)
			if q.cursor > i {
				q.cursor--
			}
			break
		}
	}
	if q.pendingPipe == p {
		q.pendingPipe = nil
		q.pending = nil
	}
}

// recv reads one full multipart message starting at the current cursor,
// advancing past the serving pipe on success (round-robin fairness, §8
// Testable Property 4). If a pipe's group is only partially available, recv
// returns ok=false without spinning or losing the frames already read: the
// next call resumes that same pipe's group from where it left off.
func (q *fairQueue) recv() ([]*frame.Frame, Pipe, bool) {
	if q.pendingPipe != nil {
		return q.drainPending()
	}

	n := len(q.pipes)
	if n == 0 {
		return nil, nil, false
	}
	for i := 0; i < n; i++ {
		idx := (q.cursor + i) % n
		p := q.pipes[idx]
		f, ok := p.Read()
		if !ok {
			continue // this pipe has nothing right now; try the next, bounded by n
		}
		q.cursor = (idx + 1) % n

		if !f.Flags.Has(frame.FlagMore) {
			return []*frame.Frame{f}, p, true
		}
		q.pendingPipe = p
		q.pending = []*frame.Frame{f}
		return q.drainPending()
	}
	return nil, nil, false
}

// drainPending continues reading q.pendingPipe's in-flight group. It never
// spins: a read that isn't ready yet returns ok=false immediately, leaving
// q.pending intact for the next call.
func (q *fairQueue) drainPending() ([]*frame.Frame, Pipe, bool) {
	p := q.pendingPipe
	for {
		f, ok := p.Read()
		if !ok {
			return nil, nil, false
		}
		q.pending = append(q.pending, f)
		if !f.Flags.Has(frame.FlagMore) {
			parts := q.pending
			q.pendingPipe = nil
			q.pending = nil
			return parts, p, true
		}
	}
}

// hasIn reports whether any attached pipe exists; actual readability can
// only be known by trying Read (the pipe package exposes no peek), so this
// is the same conservative bound bgpfix's own has-data checks use before a
// blocking read.
func (q *fairQueue) hasIn() bool {
	return len(q.pipes) > 0
}
