package eventloop

import (
	"container/heap"
	"testing"
	"time"
)

func TestTimerHeapOrdersByDueTimeThenID(t *testing.T) {
	now := time.Now()
	var h timerHeap
	heap.Push(&h, &Timer{ID: 3, ExecuteAt: now.Add(20 * time.Millisecond)})
	heap.Push(&h, &Timer{ID: 1, ExecuteAt: now.Add(10 * time.Millisecond)})
	heap.Push(&h, &Timer{ID: 2, ExecuteAt: now.Add(10 * time.Millisecond)})

	var order []uint32
	for h.Len() > 0 {
		order = append(order, heap.Pop(&h).(*Timer).ID)
	}
	want := []uint32{1, 2, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", order, want)
		}
	}
}

func TestNextTimerIDIsMonotone(t *testing.T) {
	l := New(nil, nil, nil, nil)
	a := l.NextTimerID()
	b := l.NextTimerID()
	c := l.NextTimerID()
	if !(a < b && b < c) {
		t.Fatalf("ids not monotone: %d %d %d", a, b, c)
	}
}

func TestClearTimeoutRemovesPendingTimer(t *testing.T) {
	l := New(nil, nil, nil, nil)
	id := l.NextTimerID()
	l.ScheduleTimer(id, 1000, nil)

	if l.timers.Len() != 1 {
		t.Fatalf("timers = %d, want 1", l.timers.Len())
	}
	l.ClearTimeout(id)
	if l.timers.Len() != 0 {
		t.Fatalf("timer survived ClearTimeout")
	}
	if _, ok := l.timerByID[id]; ok {
		t.Fatal("id still registered after ClearTimeout")
	}
}

func TestClearTimeoutUnknownIDIsNoop(t *testing.T) {
	l := New(nil, nil, nil, nil)
	l.ClearTimeout(42)
}

func TestScheduleTimerClampsNegativeDelay(t *testing.T) {
	l := New(nil, nil, nil, nil)
	before := time.Now()
	id := l.NextTimerID()
	l.ScheduleTimer(id, -50, nil)

	if l.timers[0].ExecuteAt.Before(before) {
		t.Fatal("negative delay scheduled in the past")
	}
	if l.timers[0].ExecuteAt.After(before.Add(50 * time.Millisecond)) {
		t.Fatal("negative delay was not clamped to zero")
	}
}

func TestPendingCountTracksRegistrations(t *testing.T) {
	l := New(nil, nil, nil, nil)
	if l.PendingCount() != 0 {
		t.Fatalf("fresh loop has %d pending ops", l.PendingCount())
	}
	id := l.NewPendingOp(nil)
	if l.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", l.PendingCount())
	}
	if id == 0 {
		t.Fatal("op id 0 issued; ids start at 1")
	}
}
