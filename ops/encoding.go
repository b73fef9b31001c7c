package ops

import (
	"fmt"
	"unicode/utf8"

	"myco/jsvalue"

	v8 "rogchap.com/v8go"
)

// newEncodingNamespace builds the "encoding" namespace: encode_utf8 and
// decode_utf8, both synchronous.
func newEncodingNamespace(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	ns := newNamespace(iso)

	entries := []struct {
		name string
		cb   v8.FunctionCallback
	}{
		{"encode_utf8", opEncodeUTF8()},
		{"decode_utf8", opDecodeUTF8()},
	}
	for _, e := range entries {
		if err := set(ns, iso, e.name, e.cb); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

func opEncodeUTF8() v8.FunctionCallback {
	const opName = "encode_utf8"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		text, err := argString(info, 0, "text")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		val, err := jsvalue.ToV8(iso, ctx, []byte(text))
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}

func opDecodeUTF8() v8.FunctionCallback {
	const opName = "decode_utf8"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		bytes, err := argBytes(ctx, info, 0, "bytes")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		if !utf8.Valid(bytes) {
			return throwOpError(iso, opName, fmt.Errorf("invalid UTF-8 sequence"))
		}
		val, err := v8.NewValue(iso, string(bytes))
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}
