// Package ops implements Myco's host-op surface: the raw functions placed
// on the JS global MycoOps object, grouped into per-namespace
// v8go.ObjectTemplates (fs, net, time, encoding, misc) that are attached
// to the root MycoOps template before the context is created.
package ops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"myco/capability"
	"myco/eventloop"
	"myco/stacktrace"
)

// State is the per-isolate collection every op callback closes over: the
// capability registry minted by request_* ops and consulted by every
// capability-gated op, the event loop (timers and async-op completions),
// the stack-trace mapper (trace()), and the process's current working
// directory (cwd/chdir, and the base for resolving relative paths given to
// request_* ops). Every method here is only ever called from the engine
// thread, so workDir needs no lock. Ctx is the orchestrator's run-scoped
// context, threaded down into outbound HTTP requests even though op
// goroutines themselves are otherwise fire-and-forget.
type State struct {
	Capabilities *capability.Registry
	Loop         *eventloop.Loop
	Mapper       *stacktrace.Mapper
	Ctx          context.Context

	workDir string
	argv    []string
}

// NewState constructs the op surface's shared state for one isolate.
func NewState(ctx context.Context, caps *capability.Registry, loop *eventloop.Loop, mapper *stacktrace.Mapper, workDir string, argv []string) *State {
	if ctx == nil {
		ctx = context.Background()
	}
	return &State{Capabilities: caps, Loop: loop, Mapper: mapper, Ctx: ctx, workDir: workDir, argv: argv}
}

// Cwd returns the process's current working directory as tracked by chdir
// ops.
func (s *State) Cwd() string { return s.workDir }

// Argv returns the process argument vector set on Myco.argv.
func (s *State) Argv() []string { return s.argv }

// Chdir updates the tracked working directory after validating path exists
// and is a directory.
func (s *State) Chdir(path string) error {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.workDir, abs)
	}
	abs = filepath.Clean(abs)

	fi, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("chdir: not a directory: %s", abs)
	}
	s.workDir = abs
	return nil
}

// resolveRelative resolves a possibly-relative path against the tracked
// working directory, the same convention request_* ops use.
func (s *State) resolveRelative(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.workDir, path)
}
