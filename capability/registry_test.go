package capability

import "testing"

func TestRegisterGetRoundTrip(t *testing.T) {
	r := NewRegistry()
	cap := Capability{Kind: ReadFile, Value: "/tmp/foo.txt"}

	token, err := r.Register(cap)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(token) != tokenLength {
		t.Fatalf("token length = %d, want %d", len(token), tokenLength)
	}

	got, ok := r.Get(token)
	if !ok {
		t.Fatalf("Get(%q): not found", token)
	}
	if got != cap {
		t.Fatalf("Get(%q) = %+v, want %+v", token, got, cap)
	}
}

func TestGetUnknownTokenFails(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("not-a-real-token"); ok {
		t.Fatal("Get of unissued token unexpectedly succeeded")
	}
}

func TestUnregisterRemovesMapping(t *testing.T) {
	r := NewRegistry()
	token, err := r.Register(Capability{Kind: FetchURL, Value: "https://example.com"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	cap, ok := r.Unregister(token)
	if !ok || cap.Kind != FetchURL {
		t.Fatalf("Unregister returned ok=%v cap=%+v", ok, cap)
	}

	if _, ok := r.Get(token); ok {
		t.Fatal("token resolved after Unregister")
	}
	if _, ok := r.Unregister(token); ok {
		t.Fatal("second Unregister of same token unexpectedly succeeded")
	}
}

func TestTokensAreUnique(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		token, err := r.Register(Capability{Kind: ReadFile, Value: "/x"})
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token minted: %s", token)
		}
		seen[token] = true
	}
}

func TestTokenAlphabet(t *testing.T) {
	token, err := newToken()
	if err != nil {
		t.Fatalf("newToken: %v", err)
	}
	if len(token) != tokenLength {
		t.Fatalf("len = %d, want %d", len(token), tokenLength)
	}
	for _, c := range token {
		found := false
		for _, a := range tokenAlphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("token %q contains non-alphanumeric rune %q", token, c)
		}
	}
}
