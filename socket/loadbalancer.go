package socket

import "github.com/zmtpfix/zmtpfix/frame"

// loadBalancer is the round-robin outbound arbiter shared by PUSH and
// DEALER (§4.3): "walks the active-pipe list round-robin; on per-pipe HWM,
// pipe is removed from the active set until write-activated."
type loadBalancer struct {
	active []Pipe
	cursor int
}

func (lb *loadBalancer) attach(p Pipe) {
	lb.active = append(lb.active, p)
}

func (lb *loadBalancer) detach(p Pipe) {
	for i, pp := range lb.active {
		if pp == p {
			lb.active = append(lb.active[:i], lb.active[i+1:]...)
			if lb.cursor > i {
				lb.cursor--
			}
			return
		}
	}
}

// writeActivated re-admits p to the active set once its peer signals more
// HWM headroom is available.
func (lb *loadBalancer) writeActivated(p Pipe) {
	for _, pp := range lb.active {
		if pp == p {
			return // already active
		}
	}
	lb.active = append(lb.active, p)
}

// send writes one multipart message to the next active pipe in rotation,
// dropping it from the active set on HWM exhaustion (§4.2 Back-pressure).
func (lb *loadBalancer) send(parts []*frame.Frame) error {
	n := len(lb.active)
	if n == 0 {
		return ErrAgain
	}

	start := lb.cursor % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		p := lb.active[idx]
		if !p.CheckWrite() {
			continue
		}
		if err := writeParts(p, parts); err != nil {
			continue
		}
		lb.cursor = (idx + 1) % n
		if !p.CheckWrite() {
			lb.removeIdx(idx)
		}
		return nil
	}
	return ErrAgain
}

func (lb *loadBalancer) removeIdx(idx int) {
	lb.active = append(lb.active[:idx], lb.active[idx+1:]...)
	if lb.cursor > idx {
		lb.cursor--
	}
}

func (lb *loadBalancer) hasOut() bool {
	for _, p := range lb.active {
		if p.CheckWrite() {
			return true
		}
	}
	return false
}

// writeParts writes every frame of parts in order, setting MORE on all but
// the last (the pipe-level rollback on a failed HWM check already gives
// atomic-or-nothing semantics, §8 Property: "A failed send never partially
// transmits a multipart group").
func writeParts(p Pipe, parts []*frame.Frame) error {
	for i, f := range parts {
		more := i < len(parts)-1
		if err := p.Write(f, more); err != nil {
			return err
		}
	}
	return nil
}
