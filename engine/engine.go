// Package engine is Myco's orchestrator: it owns one run of one program,
// from isolate creation through event-loop quiescence. Everything else in
// the repo is a leaf this package wires together — the capability registry,
// module loader, ops surface, event loop, stack-trace mapper, and optional
// inspector all hang off the per-run state built here.
package engine

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	v8 "rogchap.com/v8go"

	"myco/capability"
	"myco/eventloop"
	"myco/hosterr"
	"myco/inspector"
	"myco/jsvalue"
	"myco/module"
	"myco/ops"
	"myco/stacktrace"
)

// DebugOptions enables the inspector for a run.
type DebugOptions struct {
	Port              int
	BreakOnStart      bool
	WaitForConnection bool
}

// RunOptions is the orchestrator's one input struct, filled in by the CLI
// collaborator: the entry script, process arguments, working directory,
// optional specifier-alias table, and optional debug options. A zero
// WorkDir means the process's current directory.
type RunOptions struct {
	EntryPath string
	Argv      []string
	WorkDir   string
	Aliases   module.AliasMap
	Debug     *DebugOptions
}

// attachRejectionJS wraps the entry module's evaluation promise so a
// top-level-await rejection lands in the well-known global the event loop
// probes each tick, instead of vanishing into V8's unhandled-rejection
// machinery.
const attachRejectionJS = `
(function(p) {
	if (p && typeof p.then === "function") {
		p.then(undefined, function(e) { globalThis.__MYCO_UNHANDLED_ERROR__ = e; });
	}
})`

// Run executes one program to completion and returns its exit code. V8
// platform and ICU initialization is process-global and performed by v8go
// the first time an isolate is created; Run itself is per-invocation.
func Run(ctx context.Context, opts RunOptions) (int, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return 1, fmt.Errorf("determine working directory: %w", err)
		}
		workDir = wd
	}

	entryPath, err := module.Resolve(opts.EntryPath, workDir, opts.Aliases)
	if err != nil {
		return 1, fmt.Errorf("resolve entry module: %w", err)
	}

	iso := v8.NewIsolate()
	defer iso.Dispose()

	caps := capability.NewRegistry()
	urls := module.NewURLMap()
	maps := stacktrace.NewStore()
	mapper := stacktrace.New(maps)
	loader := module.NewLoader(iso, workDir, opts.Aliases, urls, maps)

	iso.SetHostImportModuleDynamicallyCallback(loader.DynamicImport)

	argv := opts.Argv
	if argv == nil {
		argv = []string{}
	}
	state := ops.NewState(ctx, caps, nil, mapper, workDir, argv)

	mycoOps, err := ops.Register(iso, state)
	if err != nil {
		return 1, fmt.Errorf("register ops: %w", err)
	}

	global := v8.NewObjectTemplate(iso)
	if err := global.Set("MycoOps", mycoOps); err != nil {
		return 1, fmt.Errorf("install MycoOps: %w", err)
	}

	v8ctx := v8.NewContext(iso, global)
	defer v8ctx.Close()

	mycoObj, err := jsvalue.ToV8(iso, v8ctx, map[string]any{"argv": argv})
	if err != nil {
		return 1, fmt.Errorf("build Myco global: %w", err)
	}
	if err := v8ctx.Global().Set("Myco", mycoObj); err != nil {
		return 1, fmt.Errorf("install Myco: %w", err)
	}

	var insp *inspector.Inspector
	var poller eventloop.Poller
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	g, serveCtx := errgroup.WithContext(serveCtx)
	if opts.Debug != nil {
		insp = inspector.New(inspector.Options{
			Port:              opts.Debug.Port,
			BreakOnStart:      opts.Debug.BreakOnStart,
			WaitForConnection: opts.Debug.WaitForConnection,
		})
		poller = insp
		g.Go(func() error { return insp.Serve(serveCtx) })
	}

	loop := eventloop.New(iso, v8ctx, mapper, poller)
	state.Loop = loop

	invokeVal, err := v8ctx.RunScript(bootstrapJS, "myco:bootstrap")
	if err != nil {
		return 1, fmt.Errorf("run bootstrap: %w", err)
	}
	invoke, err := invokeVal.AsFunction()
	if err != nil {
		return 1, fmt.Errorf("run bootstrap: %w", err)
	}

	mod, err := loader.LoadEntry(v8ctx, entryPath)
	if err != nil {
		return 1, err
	}

	if insp != nil {
		insp.WaitForConnection()
		insp.BreakOnStart(iso, v8ctx)
	}

	evalVal, err := loader.Evaluate(v8ctx, mod)
	if err != nil {
		return 1, err
	}

	attachVal, err := v8ctx.RunScript(attachRejectionJS, "myco:attach")
	if err != nil {
		return 1, fmt.Errorf("attach rejection handler: %w", err)
	}
	attach, err := attachVal.AsFunction()
	if err != nil {
		return 1, fmt.Errorf("attach rejection handler: %w", err)
	}
	if _, err := attach.Call(v8.Undefined(iso), evalVal); err != nil {
		return 1, fmt.Errorf("attach rejection handler: %w", err)
	}

	// Settle evaluation microtasks so the namespace's default binding is
	// initialized before it is read (modules without top-level await
	// complete here; a TLA entry's default export function itself is bound
	// before the first await).
	v8ctx.PerformMicrotaskCheckpoint()

	nsObj, err := mod.Namespace().AsObject()
	if err != nil {
		return 1, &hosterr.EvaluationError{Message: "entry module has no namespace: " + err.Error()}
	}
	defVal, err := nsObj.Get("default")
	if err != nil || defVal == nil || !defVal.IsFunction() {
		return 1, &hosterr.EvaluationError{Message: "entry module must default-export a function"}
	}
	if _, err := invoke.Call(v8.Undefined(iso), defVal); err != nil {
		return 1, &hosterr.EvaluationError{Message: "invoke entry module: " + err.Error()}
	}

	exitCode, runErr := loop.Run()

	stopServe()
	if insp != nil {
		if werr := g.Wait(); werr != nil && runErr == nil {
			runErr = fmt.Errorf("inspector: %w", werr)
		}
	}

	if runErr != nil {
		return exitCode, runErr
	}
	return exitCode, nil
}
