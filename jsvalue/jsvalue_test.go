package jsvalue

import (
	"testing"

	v8 "rogchap.com/v8go"
)

func newTestContext(t *testing.T) (*v8.Isolate, *v8.Context) {
	t.Helper()
	iso := v8.NewIsolate()
	ctx := v8.NewContext(iso)
	t.Cleanup(func() {
		ctx.Close()
		iso.Dispose()
	})
	return iso, ctx
}

func TestToV8Primitives(t *testing.T) {
	iso, ctx := newTestContext(t)

	val, err := ToV8(iso, ctx, "hello")
	if err != nil || !val.IsString() || val.String() != "hello" {
		t.Fatalf("string: %v %v", val, err)
	}

	val, err = ToV8(iso, ctx, true)
	if err != nil || !val.IsBoolean() {
		t.Fatalf("bool: %v %v", val, err)
	}

	val, err = ToV8(iso, ctx, 42)
	if err != nil || !val.IsNumber() || val.Integer() != 42 {
		t.Fatalf("int: %v %v", val, err)
	}

	val, err = ToV8(iso, ctx, nil)
	if err != nil || !val.IsNull() {
		t.Fatalf("nil: %v %v", val, err)
	}
}

func TestToV8MapRoundTrip(t *testing.T) {
	iso, ctx := newTestContext(t)

	val, err := ToV8(iso, ctx, map[string]any{"name": "myco", "count": 3})
	if err != nil {
		t.Fatalf("ToV8: %v", err)
	}
	m, err := StringMap(ctx, val)
	if err != nil {
		t.Fatalf("StringMap: %v", err)
	}
	if m["name"] != "myco" {
		t.Fatalf("m = %v", m)
	}
}

func TestByteSliceRoundTrip(t *testing.T) {
	iso, ctx := newTestContext(t)

	in := []byte{0, 1, 127, 255}
	val, err := ToV8(iso, ctx, in)
	if err != nil {
		t.Fatalf("ToV8: %v", err)
	}
	out, err := ByteSlice(ctx, val)
	if err != nil {
		t.Fatalf("ByteSlice: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], in[i])
		}
	}
}

func TestStringSliceNullIsNil(t *testing.T) {
	iso, ctx := newTestContext(t)

	got, err := StringSlice(ctx, v8.Null(iso))
	if err != nil || got != nil {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestStringMapRejectsNonObject(t *testing.T) {
	iso, ctx := newTestContext(t)

	val, _ := v8.NewValue(iso, "plain string")
	if _, err := StringMap(ctx, val); err == nil {
		t.Fatal("expected error for non-object")
	}
}
