package reactor

import "time"

type timerEntry struct {
	handle   Handle
	id       int
	deadline time.Time
	handler  Handler
}

// timerHeap is a container/heap.Interface ordering timers by deadline,
// mirroring the "expired timers, sorted by deadline" pass the reactor runs
// before dispatching fd events each wake (§4.5).
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*timerEntry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	te := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return te
}
