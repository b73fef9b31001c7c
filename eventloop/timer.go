package eventloop

import (
	"time"

	v8 "rogchap.com/v8go"
)

// Timer is one pending `set_timeout` registration. ids are never
// reused within an isolate's lifetime.
type Timer struct {
	ID        uint32
	ExecuteAt time.Time
	Callback  *v8.Function
	index     int // heap bookkeeping
}

// timerHeap orders timers by (ExecuteAt, ID) ascending: ready timers run
// in due-time order with id as the tiebreak.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if !h[i].ExecuteAt.Equal(h[j].ExecuteAt) {
		return h[i].ExecuteAt.Before(h[j].ExecuteAt)
	}
	return h[i].ID < h[j].ID
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
