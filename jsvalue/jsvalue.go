// Package jsvalue converts between Go values and V8 values by
// round-tripping through JSON. It is a small standalone package so both
// the ops surface and the event loop (which marshals async op results
// without depending on ops-specific helpers) can share it.
package jsvalue

import (
	"encoding/json"
	"fmt"

	v8 "rogchap.com/v8go"
)

// ToV8 converts a Go value to a V8 value. Primitive kinds go through
// v8go's native constructors; anything else (maps, slices, structs)
// round-trips through JSON.parse in the isolate.
func ToV8(iso *v8.Isolate, ctx *v8.Context, val any) (*v8.Value, error) {
	if val == nil {
		return v8.Null(iso), nil
	}
	switch v := val.(type) {
	case string:
		return v8.NewValue(iso, v)
	case bool:
		return v8.NewValue(iso, v)
	case int32:
		return v8.NewValue(iso, v)
	case int:
		return v8.NewValue(iso, int32(v))
	case int64:
		return v8.NewValue(iso, float64(v))
	case float64:
		return v8.NewValue(iso, v)
	case []byte:
		return bytesToV8(iso, ctx, v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return parseJSON(ctx, data)
	}
}

// bytesToV8 represents a byte slice as a JS array of numbers (0-255), the
// shape ops like read_file/exec_file surface to JS.
func bytesToV8(iso *v8.Isolate, ctx *v8.Context, b []byte) (*v8.Value, error) {
	nums := make([]int, len(b))
	for i, by := range b {
		nums[i] = int(by)
	}
	data, err := json.Marshal(nums)
	if err != nil {
		return nil, fmt.Errorf("marshal bytes: %w", err)
	}
	return parseJSON(ctx, data)
}

func parseJSON(ctx *v8.Context, data []byte) (*v8.Value, error) {
	escaped, err := json.Marshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("escape JSON for parse: %w", err)
	}
	return ctx.RunScript(fmt.Sprintf("JSON.parse(%s)", escaped), "jsvalue_to_v8")
}

// StringMap reads a JS object as a Go map[string]string via JSON
// stringify/parse, returning nil for undefined/null.
func StringMap(ctx *v8.Context, val *v8.Value) (map[string]string, error) {
	if val == nil || val.IsUndefined() || val.IsNull() {
		return nil, nil
	}
	if !val.IsObject() {
		return nil, fmt.Errorf("expected object, got %s", val.String())
	}
	jsonStr, err := v8.JSONStringify(ctx, val)
	if err != nil {
		return nil, fmt.Errorf("stringify object: %w", err)
	}
	var result map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("parse object JSON: %w", err)
	}
	return result, nil
}

// StringSlice reads a JS array of strings into a Go []string, returning nil
// for undefined/null (used by exec_file's argv parameter).
func StringSlice(ctx *v8.Context, val *v8.Value) ([]string, error) {
	if val == nil || val.IsUndefined() || val.IsNull() {
		return nil, nil
	}
	jsonStr, err := v8.JSONStringify(ctx, val)
	if err != nil {
		return nil, fmt.Errorf("stringify string array: %w", err)
	}
	var result []string
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("parse string array JSON: %w", err)
	}
	return result, nil
}

// ByteSlice reads a JS array of numbers (as produced by ToV8's []byte case)
// back into a Go []byte.
func ByteSlice(ctx *v8.Context, val *v8.Value) ([]byte, error) {
	jsonStr, err := v8.JSONStringify(ctx, val)
	if err != nil {
		return nil, fmt.Errorf("stringify byte array: %w", err)
	}
	var nums []int
	if err := json.Unmarshal([]byte(jsonStr), &nums); err != nil {
		return nil, fmt.Errorf("parse byte array JSON: %w", err)
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		out[i] = byte(n)
	}
	return out, nil
}
