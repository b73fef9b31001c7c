package ops

import (
	"fmt"

	"myco/capability"
	"myco/jsvalue"

	v8 "rogchap.com/v8go"
)

// throwOpError formats "<op>: <cause>" and throws it as a JS exception;
// every sync op funnels its failures through here so error text stays
// uniform across the surface.
func throwOpError(iso *v8.Isolate, op string, err error) *v8.Value {
	val, mkErr := v8.NewValue(iso, fmt.Sprintf("%s: %s", op, err.Error()))
	if mkErr != nil {
		return iso.ThrowException(v8.Undefined(iso))
	}
	return iso.ThrowException(val)
}

// rejectOpError rejects an async op's promise with a formatted error,
// mirroring throwOpError's message shape for the promise-returning
// calling convention.
func rejectOpError(iso *v8.Isolate, resolver *v8.PromiseResolver, op string, err error) {
	val, mkErr := v8.NewValue(iso, fmt.Sprintf("%s: %s", op, err.Error()))
	if mkErr != nil {
		return
	}
	_ = resolver.Reject(val)
}

func argString(info *v8.FunctionCallbackInfo, idx int, name string) (string, error) {
	args := info.Args()
	if idx >= len(args) {
		return "", fmt.Errorf("%s is required", name)
	}
	if !args[idx].IsString() {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return args[idx].String(), nil
}

// argOptionalString reads an optional trailing string argument, treating a
// missing, undefined, or null value as absent.
func argOptionalString(info *v8.FunctionCallbackInfo, idx int) (string, bool) {
	args := info.Args()
	if idx >= len(args) {
		return "", false
	}
	v := args[idx]
	if v.IsUndefined() || v.IsNull() {
		return "", false
	}
	return v.String(), true
}

func argFloat(info *v8.FunctionCallbackInfo, idx int, name string) (float64, error) {
	args := info.Args()
	if idx >= len(args) {
		return 0, fmt.Errorf("%s is required", name)
	}
	if !args[idx].IsNumber() {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return args[idx].Number(), nil
}

func argBool(info *v8.FunctionCallbackInfo, idx int) bool {
	args := info.Args()
	if idx >= len(args) {
		return false
	}
	return args[idx].Boolean()
}

func argBytes(ctx *v8.Context, info *v8.FunctionCallbackInfo, idx int, name string) ([]byte, error) {
	args := info.Args()
	if idx >= len(args) {
		return nil, fmt.Errorf("%s is required", name)
	}
	return jsvalue.ByteSlice(ctx, args[idx])
}

// access names the three effective-permission classes a token/sub-path pair
// is resolved against.
type access int

const (
	accessRead access = iota
	accessWrite
	accessExec
)

func (a access) String() string {
	switch a {
	case accessRead:
		return "read"
	case accessWrite:
		return "write"
	default:
		return "exec"
	}
}

// resolvePath turns a (token, optional sub-path) pair into the effective
// filesystem path: a file capability with no sub-path resolves to its
// captured path; a directory capability with a sub-path canonicalises it
// under the capability's root; every other combination is "invalid token
// for <access> access".
func resolvePath(state *State, token string, subPath string, hasSubPath bool, want access) (string, error) {
	cap, ok := state.Capabilities.Get(token)
	if !ok {
		return "", fmt.Errorf("invalid token for %s access", want)
	}

	switch want {
	case accessRead:
		if cap.Kind == capability.ReadFile && !hasSubPath {
			return cap.Value, nil
		}
		if cap.Kind == capability.ReadDir && hasSubPath {
			return capability.ResolveUnderRoot(cap.Value, subPath)
		}
	case accessWrite:
		if cap.Kind == capability.WriteFile && !hasSubPath {
			return cap.Value, nil
		}
		if cap.Kind == capability.WriteDir && hasSubPath {
			return capability.ResolveUnderRoot(cap.Value, subPath)
		}
	case accessExec:
		if cap.Kind == capability.ExecFile && !hasSubPath {
			return cap.Value, nil
		}
		if cap.Kind == capability.ExecDir && hasSubPath {
			return capability.ResolveUnderRoot(cap.Value, subPath)
		}
	}
	return "", fmt.Errorf("invalid token for %s access", want)
}

// newNamespace is the shared per-namespace ObjectTemplate builder: every
// namespace file calls this once, installs its functions with set, then
// returns the finished template for Register to attach to MycoOps.
func newNamespace(iso *v8.Isolate) *v8.ObjectTemplate {
	return v8.NewObjectTemplate(iso)
}

func set(ns *v8.ObjectTemplate, iso *v8.Isolate, name string, cb v8.FunctionCallback) error {
	fn := v8.NewFunctionTemplate(iso, cb)
	if err := ns.Set(name, fn, v8.ReadOnly); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}
