package capability

import (
	"crypto/rand"
	"fmt"
	"sync"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// tokenLength is 30 alphanumeric characters drawn from a CSPRNG, over
// 178 bits of entropy.
const tokenLength = 30

// Registry is the per-isolate Token → Capability table. It is created at
// isolate init and lives for the isolate's lifetime. Only the host
// mutates it, in response to request_* ops; every capability-gated op
// reads it.
type Registry struct {
	mu    sync.Mutex
	table map[string]Capability
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: make(map[string]Capability)}
}

// Register mints a fresh token for cap, inserts it, and returns the token.
// Tokens are never reused across a registry's lifetime (the birthday bound
// at 30 alphanumeric characters — over 178 bits of entropy — makes
// collision practically impossible, so no collision-retry loop is needed).
func (r *Registry) Register(cap Capability) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("mint capability token: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[token] = cap
	return token, nil
}

// Get resolves a token to its capability. ok is false if the token was
// never issued by this registry or has since been unregistered.
func (r *Registry) Get(token string) (cap Capability, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cap, ok = r.table[token]
	return cap, ok
}

// Unregister removes a token's mapping, returning the capability it used to
// name (ok false if it was not present). Not exposed to user code as a
// `revoke` op — used internally
// only, if a future capability-gated op needs to invalidate a token it owns
// the lifecycle of.
func (r *Registry) Unregister(token string) (cap Capability, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cap, ok = r.table[token]
	if ok {
		delete(r.table, token)
	}
	return cap, ok
}

// newToken draws a uniform-random 30-character alphanumeric string from a
// CSPRNG. crypto/rand.Int would introduce modulo bias for a 62-symbol
// alphabet against a byte-sized draw, so bytes are rejection-sampled
// instead: the alphabet size (62) does not evenly divide 256, so byte
// values ≥ 62*4=248 are discarded rather than reduced mod 62.
func newToken() (string, error) {
	const maxByte = byte(248) // largest multiple of len(tokenAlphabet) (62) <= 256

	out := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength*2) // oversample; rejection discards some
	for len(out) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxByte {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == tokenLength {
				break
			}
		}
	}
	return string(out), nil
}
