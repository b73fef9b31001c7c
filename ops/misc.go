package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"myco/jsvalue"

	"github.com/BurntSushi/toml"
	v8 "rogchap.com/v8go"
)

// newMiscNamespace builds the "misc" namespace: toml_parse, toml_stringify,
// cwd, chdir, print, trace — all synchronous.
func newMiscNamespace(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	ns := newNamespace(iso)

	entries := []struct {
		name string
		cb   v8.FunctionCallback
	}{
		{"toml_parse", opTomlParse()},
		{"toml_stringify", opTomlStringify()},
		{"cwd", opCwd(state)},
		{"chdir", opChdir(state)},
		{"print", opPrint()},
		{"trace", opTrace(state)},
	}
	for _, e := range entries {
		if err := set(ns, iso, e.name, e.cb); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

func opTomlParse() v8.FunctionCallback {
	const opName = "toml_parse"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		text, err := argString(info, 0, "toml_string")
		if err != nil {
			return throwOpError(iso, opName, err)
		}

		var parsed map[string]interface{}
		if _, err := toml.Decode(text, &parsed); err != nil {
			return throwOpError(iso, opName, fmt.Errorf("parse toml: %w", err))
		}
		val, err := jsvalue.ToV8(iso, ctx, parsed)
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}

func opTomlStringify() v8.FunctionCallback {
	const opName = "toml_stringify"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		args := info.Args()
		if len(args) < 1 {
			return throwOpError(iso, opName, fmt.Errorf("value is required"))
		}

		jsonStr, err := v8.JSONStringify(ctx, args[0])
		if err != nil {
			return throwOpError(iso, opName, fmt.Errorf("stringify value: %w", err))
		}
		var data interface{}
		if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
			return throwOpError(iso, opName, fmt.Errorf("parse value json: %w", err))
		}

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(data); err != nil {
			return throwOpError(iso, opName, fmt.Errorf("encode toml: %w", err))
		}
		val, err := v8.NewValue(iso, buf.String())
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}

func opCwd(state *State) v8.FunctionCallback {
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		val, err := v8.NewValue(iso, state.Cwd())
		if err != nil {
			return throwOpError(iso, "cwd", err)
		}
		return val
	}
}

func opChdir(state *State) v8.FunctionCallback {
	const opName = "chdir"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		path, err := argString(info, 0, "path")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		if err := state.Chdir(path); err != nil {
			return throwOpError(iso, opName, err)
		}
		return v8.Undefined(iso)
	}
}

func opPrint() v8.FunctionCallback {
	const opName = "print"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		args := info.Args()
		if len(args) < 2 {
			return throwOpError(iso, opName, fmt.Errorf("print requires 2 arguments: message and is_err"))
		}
		message := args[0].String()
		isErr := args[1].Boolean()
		if isErr {
			fmt.Fprint(os.Stderr, message)
		} else {
			fmt.Fprint(os.Stdout, message)
		}
		return v8.Undefined(iso)
	}
}

// opTrace returns the current JS call stack, source-mapped, with its own
// synthetic call frame omitted. v8go exposes no direct stack-capture
// binding, so the stack is captured the standard JS way instead:
// constructing an Error from within the callback's own synchronous
// RunScript call, which still sees every JS frame active when trace() was
// called.
func opTrace(state *State) v8.FunctionCallback {
	const opName = "trace"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		val, err := ctx.RunScript("new Error().stack", "myco_trace")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		stack := dropFirstNLines(val.String(), 2)
		if state.Mapper != nil {
			stack = state.Mapper.MapStack(stack)
		}
		out, err := v8.NewValue(iso, stack)
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return out
	}
}

// dropFirstNLines removes the leading n lines of s (the synthetic "Error"
// header and this op's own synthetic frame).
func dropFirstNLines(s string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			return ""
		}
		s = s[idx+1:]
	}
	return s
}
