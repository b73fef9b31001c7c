package ops

import (
	"fmt"

	v8 "rogchap.com/v8go"
)

// newTimeNamespace builds the "time" namespace: set_timeout and
// clear_timeout, both synchronous. The op itself never receives a JS
// callback; it only returns an id, and the bootstrap JS's own per-id
// callback registry is what the compiled
// `globalThis.__mycoTimerComplete(id)` script invokes when the timer
// fires.
func newTimeNamespace(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	ns := newNamespace(iso)

	entries := []struct {
		name string
		cb   v8.FunctionCallback
	}{
		{"set_timeout", opSetTimeout(state)},
		{"clear_timeout", opClearTimeout(state)},
	}
	for _, e := range entries {
		if err := set(ns, iso, e.name, e.cb); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

func opSetTimeout(state *State) v8.FunctionCallback {
	const opName = "set_timeout"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()

		delay, err := argFloat(info, 0, "delay_ms")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		if delay < 0 {
			delay = 0
		}

		id := state.Loop.NextTimerID()
		script := fmt.Sprintf("(function() { globalThis.__mycoTimerComplete(%d); })", id)
		fnVal, err := ctx.RunScript(script, "myco_timer_callback")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		fn, err := fnVal.AsFunction()
		if err != nil {
			return throwOpError(iso, opName, err)
		}

		state.Loop.ScheduleTimer(id, int(delay), fn)

		idVal, err := v8.NewValue(iso, int32(id))
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return idVal
	}
}

func opClearTimeout(state *State) v8.FunctionCallback {
	const opName = "clear_timeout"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		id, err := argFloat(info, 0, "timer_id")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		state.Loop.ClearTimeout(uint32(id))
		return v8.Undefined(iso)
	}
}
