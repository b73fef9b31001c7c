package module

import "testing"

func TestAliasExactMatch(t *testing.T) {
	a := AliasMap{"@local/lib-std": "/srv/lib-std"}
	got, ok := a.Resolve("@local/lib-std")
	if !ok || got != "/srv/lib-std" {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestAliasPrefixRewritesRemainder(t *testing.T) {
	a := AliasMap{"@local/lib-std": "/srv/lib-std"}
	got, ok := a.Resolve("@local/lib-std/strings/pad")
	if !ok || got != "/srv/lib-std/strings/pad" {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestAliasLongestPrefixWins(t *testing.T) {
	a := AliasMap{
		"@local":         "/srv/everything",
		"@local/lib-std": "/srv/lib-std",
	}
	got, ok := a.Resolve("@local/lib-std/strings")
	if !ok || got != "/srv/lib-std/strings" {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestAliasNoPartialSegmentMatch(t *testing.T) {
	// "@local/lib-stdlib" must not match the "@local/lib-std" alias: the
	// prefix has to end at a specifier segment boundary.
	a := AliasMap{"@local/lib-std": "/srv/lib-std"}
	if _, ok := a.Resolve("@local/lib-stdlib/strings"); ok {
		t.Fatal("matched across a segment boundary")
	}
}

func TestAliasNoMatch(t *testing.T) {
	a := AliasMap{"@local/lib-std": "/srv/lib-std"}
	if _, ok := a.Resolve("./relative"); ok {
		t.Fatal("unexpected match")
	}
	if _, ok := AliasMap(nil).Resolve("@local/lib-std"); ok {
		t.Fatal("nil map matched")
	}
}
