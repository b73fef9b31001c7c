package ops

import (
	"myco/jsvalue"

	v8 "rogchap.com/v8go"
)

// syncOrAsync dispatches both op calling conventions from one shared work
// closure: the sync variant runs work on the calling (engine) thread and
// returns its result directly, throwing on error; the async variant
// registers a pending op with the event loop and runs work on a scratch
// goroutine, handing its result to the loop's completion channel — the
// loop converts it to a v8.Value and resolves/rejects the promise when it
// drains that channel on the engine thread (eventloop.Loop.Complete).
func syncOrAsync(iso *v8.Isolate, ctx *v8.Context, state *State, async bool, opName string, work func() (any, error)) *v8.Value {
	if !async {
		val, err := work()
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		v8val, verr := jsvalue.ToV8(iso, ctx, val)
		if verr != nil {
			return throwOpError(iso, opName, verr)
		}
		return v8val
	}

	resolver, err := v8.NewPromiseResolver(ctx)
	if err != nil {
		return throwOpError(iso, opName, err)
	}
	opID := state.Loop.NewPendingOp(resolver)
	go func() {
		val, err := work()
		state.Loop.Complete(opID, val, err)
	}()
	return resolver.GetPromise().Value
}

// syncOrRejected handles an argument-parsing failure before any work
// closure exists: the sync variant throws immediately; the async variant
// still returns a (rejected) promise rather than throwing, preserving the
// promise-returning calling convention even when the call itself was
// malformed.
func syncOrRejected(iso *v8.Isolate, ctx *v8.Context, state *State, async bool, opName string, _ any, err error) *v8.Value {
	if !async {
		return throwOpError(iso, opName, err)
	}
	resolver, mkErr := v8.NewPromiseResolver(ctx)
	if mkErr != nil {
		return throwOpError(iso, opName, err)
	}
	rejectOpError(iso, resolver, opName, err)
	return resolver.GetPromise().Value
}
