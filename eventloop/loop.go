// Package eventloop implements Myco's single-threaded cooperative event
// loop: interleaving microtasks, timer execution, completion of pending
// asynchronous host operations, and inspector polling, and deciding when
// the program is done. Blocking host work runs on scratch goroutines whose
// results arrive on a buffered channel the loop drains without blocking.
package eventloop

import (
	"container/heap"
	"time"

	"myco/stacktrace"

	v8 "rogchap.com/v8go"
)

const (
	// emptyTickThreshold is the number of consecutive idle ticks that
	// signal the program is done.
	emptyTickThreshold = 10

	// graceWindowTicks is how many initial ticks never count as "empty",
	// giving the module graph time to attach timers/ops.
	graceWindowTicks = 50

	// maxSleep caps how long the loop blocks waiting for the next timer.
	maxSleep = 10 * time.Millisecond

	unhandledErrorGlobal = "__MYCO_UNHANDLED_ERROR__"
	exitCodeGlobal       = "__MYCO_EXIT_CODE__"
)

// Completion is one asynchronous op's result, delivered from whatever
// goroutine performed the blocking work. Value is a plain
// Go value; jsvalue.ToV8 converts it on the engine thread when the loop
// drains it — v8 values are never touched off the engine thread.
type Completion struct {
	OpID  uint64
	Value any
	Err   error
}

// Poller lets the inspector participate in step 3 of each tick without the
// event loop depending on the inspector package directly.
type Poller interface {
	Poll(iso *v8.Isolate, ctx *v8.Context)
}

// Loop drives one isolate's ticks to completion.
type Loop struct {
	iso    *v8.Isolate
	ctx    *v8.Context
	mapper *stacktrace.Mapper
	poller Poller

	timers    timerHeap
	timerByID map[uint32]*Timer
	nextTimer uint32

	pending    map[uint64]*v8.PromiseResolver
	nextOpID   uint64
	completion chan Completion

	tick      int
	emptyRun  int
}

// New constructs a Loop for one isolate/context pair. poller may be nil
// (inspector disabled).
func New(iso *v8.Isolate, ctx *v8.Context, mapper *stacktrace.Mapper, poller Poller) *Loop {
	return &Loop{
		iso:        iso,
		ctx:        ctx,
		mapper:     mapper,
		poller:     poller,
		timerByID:  make(map[uint32]*Timer),
		pending:    make(map[uint64]*v8.PromiseResolver),
		completion: make(chan Completion, 256),
	}
}

// SetTimeout schedules cb to run after delayMs (clamped to >= 0), returning
// a timer id unique within this loop's lifetime.
func (l *Loop) SetTimeout(delayMs int, cb *v8.Function) uint32 {
	id := l.NextTimerID()
	l.ScheduleTimer(id, delayMs, cb)
	return id
}

// NextTimerID reserves the next timer id without scheduling anything yet.
// set_timeout's op callback needs the id before it can compile the
// completion script that closes over it, so reservation and
// scheduling are split into two calls instead of one.
func (l *Loop) NextTimerID() uint32 {
	l.nextTimer++
	return l.nextTimer
}

// ScheduleTimer arms a previously reserved id to run cb after delayMs
// (clamped to >= 0).
func (l *Loop) ScheduleTimer(id uint32, delayMs int, cb *v8.Function) {
	if delayMs < 0 {
		delayMs = 0
	}
	t := &Timer{
		ID:        id,
		ExecuteAt: time.Now().Add(time.Duration(delayMs) * time.Millisecond),
		Callback:  cb,
	}
	heap.Push(&l.timers, t)
	l.timerByID[id] = t
}

// ClearTimeout removes a pending timer. A no-op if id already fired or was
// never registered.
func (l *Loop) ClearTimeout(id uint32) {
	t, ok := l.timerByID[id]
	if !ok {
		return
	}
	heap.Remove(&l.timers, t.index)
	delete(l.timerByID, id)
}

// NewPendingOp registers a promise resolver awaiting an async op's
// completion and returns the op id the completer must report against.
func (l *Loop) NewPendingOp(resolver *v8.PromiseResolver) uint64 {
	l.nextOpID++
	id := l.nextOpID
	l.pending[id] = resolver
	return id
}

// Complete enqueues a finished async op's result. Safe to call from any
// goroutine — this channel is the loop's one cross-thread entry point
// besides the inspector's own channels.
func (l *Loop) Complete(opID uint64, value any, err error) {
	l.completion <- Completion{OpID: opID, Value: value, Err: err}
}

// PendingCount reports how many async ops have not yet resolved, used by
// the termination check.
func (l *Loop) PendingCount() int { return len(l.pending) }
