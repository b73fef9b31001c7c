// Package inspector implements the debug-protocol surface: an HTTP
// discovery endpoint, a WebSocket session, and the two startup gates
// (break-on-start, wait-for-connection) the engine orchestrator consults
// around compilation and before entering the event loop. It satisfies
// eventloop.Poller so the event loop can dispatch one queued protocol
// message per tick without depending on this package directly.
//
// v8go exposes no binding for V8's native C++ inspector
// (v8::V8Inspector/V8InspectorSession), so this package does not attach to
// V8's real debugger backend. It implements the session/transport layer
// faithfully (discovery JSON, WebSocket upgrade, session ids, the two
// startup gates, the nested pause loop) against a small hand-dispatched
// subset of the Chrome DevTools Protocol (Runtime.enable, Runtime.evaluate,
// Debugger.enable, Debugger.pause, Debugger.resume) adequate to inspect and
// step a paused program from a connected client. True mid-execution
// breakpoints at arbitrary JS statements are out of reach without the
// native hooks; the one genuine pause point this package can enforce is
// break-on-start, which lands between engine phases where the engine
// thread is already idle waiting on us.
package inspector

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	v8 "rogchap.com/v8go"
)

// pollInterval is the granularity of the blocking gates.
const pollInterval = 10 * time.Millisecond

// handshakePolls is how many additional polls wait-for-connection runs
// after a session first attaches, giving the client time to finish its
// DevTools handshake before user code resumes.
const handshakePolls = 10

// Options configures one Inspector for one run.
type Options struct {
	Port              int
	BreakOnStart      bool
	WaitForConnection bool
}

// Inspector is a single-target debug session: one HTTP/WS server, one
// active WebSocket at a time. Its channels are the only state shared across
// the engine thread and the HTTP goroutines: no field here is ever
// locked, only communicated through incoming/outgoing/attach.
type Inspector struct {
	SessionID string
	opts      Options

	attach   chan *session // handed off by the WS upgrade handler
	incoming chan []byte   // raw client frames, queued for Poll to dispatch
	outgoing chan []byte   // raw frames queued for the active session's writer

	current atomic.Pointer[session]
	hasConn atomic.Bool

	pausedMu sync.Mutex
	resumeCh chan struct{} // non-nil while paused; closed to signal resume

	nextMsgID int64
}

// New constructs an Inspector with a fresh v4 session id as its one
// opaque externally visible identifier.
func New(opts Options) *Inspector {
	return &Inspector{
		SessionID: uuid.NewString(),
		opts:      opts,
		attach:    make(chan *session, 1),
		incoming:  make(chan []byte, 256),
		outgoing:  make(chan []byte, 256),
	}
}

// Poll implements eventloop.Poller: accept a newly attached
// session if one is waiting, then dispatch at most one queued client
// message against the engine's isolate/context.
func (insp *Inspector) Poll(iso *v8.Isolate, ctx *v8.Context) {
	insp.acceptPending()

	select {
	case raw := <-insp.incoming:
		insp.dispatch(iso, ctx, raw)
	default:
	}
}

// acceptPending swaps in a newly attached session without blocking.
func (insp *Inspector) acceptPending() {
	select {
	case s := <-insp.attach:
		insp.current.Store(s)
		insp.hasConn.Store(true)
	default:
	}
}

// WaitForConnection implements the wait-for-connection gate: block,
// polling at ~10ms granularity, until a session has attached, then run
// handshakePolls more idle polls before returning.
func (insp *Inspector) WaitForConnection() {
	if !insp.opts.WaitForConnection {
		return
	}
	for !insp.hasConn.Load() {
		insp.acceptPending()
		time.Sleep(pollInterval)
	}
	for i := 0; i < handshakePolls; i++ {
		insp.acceptPending()
		time.Sleep(pollInterval)
	}
}

// BreakOnStart implements the break-on-start gate: if enabled,
// announce a pause to any connected client and block in the nested pause
// loop until a Debugger.resume message arrives (or no session is attached,
// in which case there is nothing to resume from and the engine would hang
// forever — so an unattached break-on-start is a no-op, the same way the
// original treats break-on-start as meaningless without wait-for-connection
// also set).
func (insp *Inspector) BreakOnStart(iso *v8.Isolate, ctx *v8.Context) {
	if !insp.opts.BreakOnStart || !insp.hasConn.Load() {
		return
	}
	insp.enterPause("Break on start")
	insp.runNestedPauseLoop(iso, ctx)
}

// enterPause arms resumeCh and announces the pause as a Debugger.paused
// event (CDP shape), if a session is attached.
func (insp *Inspector) enterPause(reason string) {
	insp.pausedMu.Lock()
	insp.resumeCh = make(chan struct{})
	insp.pausedMu.Unlock()

	insp.notify("Debugger.paused", map[string]any{
		"reason":     reason,
		"callFrames": []any{},
	})
}

// runNestedPauseLoop blocks the engine thread while the debugger is
// paused, processing inspector messages only — the engine's own resume
// signal substitutes for V8's "quit message loop on pause" callback, since
// v8go exposes no such hook.
func (insp *Inspector) runNestedPauseLoop(iso *v8.Isolate, ctx *v8.Context) {
	insp.pausedMu.Lock()
	resumeCh := insp.resumeCh
	insp.pausedMu.Unlock()
	if resumeCh == nil {
		return
	}

	for {
		insp.acceptPending()
		select {
		case raw := <-insp.incoming:
			insp.dispatch(iso, ctx, raw)
		case <-resumeCh:
			return
		default:
			time.Sleep(pollInterval)
		}
		select {
		case <-resumeCh:
			return
		default:
		}
	}
}

// cdpMessage is the minimal request shape this package understands.
type cdpMessage struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func (insp *Inspector) dispatch(iso *v8.Isolate, ctx *v8.Context, raw []byte) {
	var msg cdpMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}

	switch msg.Method {
	case "Runtime.enable", "Debugger.enable", "Profiler.enable":
		insp.reply(msg.ID, map[string]any{})

	case "Runtime.evaluate":
		insp.handleEvaluate(ctx, msg)

	case "Debugger.pause":
		insp.enterPause("other")
		insp.reply(msg.ID, map[string]any{})

	case "Debugger.resume":
		insp.resume()
		insp.reply(msg.ID, map[string]any{})

	default:
		insp.replyError(msg.ID, "'"+msg.Method+"' wasn't found")
	}
}

func (insp *Inspector) handleEvaluate(ctx *v8.Context, msg cdpMessage) {
	var params struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		insp.replyError(msg.ID, "invalid params: "+err.Error())
		return
	}

	val, err := ctx.RunScript(params.Expression, "debugger-eval")
	if err != nil {
		insp.reply(msg.ID, map[string]any{
			"result": map[string]any{"type": "undefined"},
			"exceptionDetails": map[string]any{
				"text": err.Error(),
			},
		})
		return
	}
	insp.reply(msg.ID, map[string]any{
		"result": map[string]any{
			"type":        "string",
			"description": val.String(),
			"value":       val.String(),
		},
	})
}

func (insp *Inspector) resume() {
	insp.pausedMu.Lock()
	defer insp.pausedMu.Unlock()
	if insp.resumeCh != nil {
		close(insp.resumeCh)
		insp.resumeCh = nil
	}
}

func (insp *Inspector) reply(id int64, result map[string]any) {
	insp.send(map[string]any{"id": id, "result": result})
}

func (insp *Inspector) replyError(id int64, message string) {
	insp.send(map[string]any{"id": id, "error": map[string]any{"code": -32601, "message": message}})
}

func (insp *Inspector) notify(method string, params map[string]any) {
	insp.send(map[string]any{"method": method, "params": params})
}

func (insp *Inspector) send(payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case insp.outgoing <- raw:
	default:
		// Outgoing is full and the client isn't draining it; drop rather
		// than block the engine thread.
	}
}

// Serve runs the HTTP/WS server until ctx is cancelled.
func (insp *Inspector) Serve(ctx context.Context) error {
	return insp.serveHTTP(ctx)
}

func (insp *Inspector) nextID() int64 {
	return atomic.AddInt64(&insp.nextMsgID, 1)
}
