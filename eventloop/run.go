package eventloop

import (
	"container/heap"
	"time"

	"myco/hosterr"
	"myco/jsvalue"

	v8 "rogchap.com/v8go"
)

// Run drives ticks until the program is done or an unhandled rejection
// terminates it early. On clean termination it returns the exit code
// read from __MYCO_EXIT_CODE__ (0 if unset or non-numeric).
func (l *Loop) Run() (exitCode int, err error) {
	for {
		l.tick++

		if rejErr := l.probeUnhandledRejection(); rejErr != nil {
			return 1, rejErr
		}

		didWork := l.drainCompletions()

		if l.poller != nil {
			l.poller.Poll(l.iso, l.ctx)
		}

		ranTimer := l.runDueTimers()

		l.ctx.PerformMicrotaskCheckpoint()

		if didWork || ranTimer {
			l.emptyRun = 0
		} else if l.tick > graceWindowTicks {
			l.emptyRun++
		}

		if l.timers.Len() == 0 && len(l.pending) == 0 && l.emptyRun >= emptyTickThreshold {
			return l.readExitCode(), nil
		}

		l.sleepUntilWork()
	}
}

// probeUnhandledRejection checks the well-known global user-side wrappers
// park rejections in, terminating the run when one is set.
func (l *Loop) probeUnhandledRejection() error {
	val, err := l.ctx.Global().Get(unhandledErrorGlobal)
	if err != nil || val == nil || val.IsUndefined() || val.IsNull() {
		return nil
	}

	message := val.String()
	stack := message
	if val.IsObject() {
		obj, oerr := val.AsObject()
		if oerr == nil {
			if stackVal, serr := obj.Get("stack"); serr == nil && stackVal != nil && !stackVal.IsUndefined() {
				stack = stackVal.String()
			}
			if msgVal, merr := obj.Get("message"); merr == nil && msgVal != nil && !msgVal.IsUndefined() {
				message = msgVal.String()
			}
		}
	}
	if l.mapper != nil {
		stack = l.mapper.MapStack(stack)
	}
	return &hosterr.EvaluationError{Message: message, Stack: stack}
}

// drainCompletions is a non-blocking receive loop over the op-completion
// channel, resolving or rejecting each op's promise in channel-arrival
// order.
func (l *Loop) drainCompletions() bool {
	did := false
	for {
		select {
		case c := <-l.completion:
			did = true
			resolver, ok := l.pending[c.OpID]
			delete(l.pending, c.OpID)
			if !ok {
				continue
			}
			if c.Err != nil {
				errVal, _ := v8.NewValue(l.iso, c.Err.Error())
				_ = resolver.Reject(errVal)
				continue
			}
			v8val, verr := jsvalue.ToV8(l.iso, l.ctx, c.Value)
			if verr != nil {
				errVal, _ := v8.NewValue(l.iso, verr.Error())
				_ = resolver.Reject(errVal)
				continue
			}
			_ = resolver.Resolve(v8val)
		default:
			return did
		}
	}
}

// runDueTimers executes every timer whose due time has passed, in
// (ExecuteAt, ID) order.
func (l *Loop) runDueTimers() bool {
	now := time.Now()
	ran := false
	for l.timers.Len() > 0 && !l.timers[0].ExecuteAt.After(now) {
		t := heap.Pop(&l.timers).(*Timer)
		delete(l.timerByID, t.ID)
		ran = true
		if _, err := t.Callback.Call(v8.Undefined(l.iso)); err != nil {
			// The bootstrap's timer wrapper catches a throwing callback and
			// parks it in __MYCO_UNHANDLED_ERROR__ for the next tick's
			// probe; an error surfacing here means the callback script
			// itself was broken, which the probe also catches.
			_ = err
		}
	}
	return ran
}

// sleepUntilWork yields cooperatively; if timers remain, sleeps until the
// earliest execute_at, capped at 10ms.
func (l *Loop) sleepUntilWork() {
	if l.timers.Len() == 0 {
		time.Sleep(time.Millisecond)
		return
	}
	wait := time.Until(l.timers[0].ExecuteAt)
	if wait > maxSleep {
		wait = maxSleep
	}
	if wait > 0 {
		time.Sleep(wait)
	}
}

// readExitCode reads __MYCO_EXIT_CODE__ after the loop exits.
func (l *Loop) readExitCode() int {
	val, err := l.ctx.Global().Get(exitCodeGlobal)
	if err != nil || val == nil || val.IsUndefined() || val.IsNull() {
		return 0
	}
	if !val.IsNumber() {
		return 0
	}
	return int(val.Integer())
}
