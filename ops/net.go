package ops

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"myco/capability"

	v8 "rogchap.com/v8go"
)

const maxFetchResponseBytes = 50 << 20 // 50 MB, generous but bounded

// newNetNamespace builds the "net" namespace: the two URL
// capability-request ops and fetch_url.
func newNetNamespace(iso *v8.Isolate, state *State) (*v8.ObjectTemplate, error) {
	ns := newNamespace(iso)

	type entry struct {
		name string
		cb   v8.FunctionCallback
	}
	entries := []entry{
		{"request_fetch_url", netRequestOp(state, "request_fetch_url", capability.FetchURL)},
		{"request_fetch_prefix", netRequestOp(state, "request_fetch_prefix", capability.FetchPrefix)},
		{"fetch_url", opFetchURL(state)},
	}

	for _, e := range entries {
		if err := set(ns, iso, e.name, e.cb); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

// netRequestOp mints a FetchUrl/FetchPrefix capability. Neither has a
// precondition — the argument is taken as-is, unlike the
// filesystem request ops which resolve it against the working directory.
func netRequestOp(state *State, opName string, kind capability.Kind) v8.FunctionCallback {
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		iso := info.Context().Isolate()
		url, err := argString(info, 0, "url")
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		token, err := state.Capabilities.Register(capability.Capability{Kind: kind, Value: url})
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		val, err := v8.NewValue(iso, token)
		if err != nil {
			return throwOpError(iso, opName, err)
		}
		return val
	}
}

// opFetchURL implements fetch_url(token, optional_path): FetchUrl tokens
// must not carry a path; FetchPrefix tokens must, and it is rejected if it
// contains ".." or "://" (host-switching). Always promise-returning.
func opFetchURL(state *State) v8.FunctionCallback {
	const opName = "fetch_url"
	return func(info *v8.FunctionCallbackInfo) *v8.Value {
		ctx := info.Context()
		iso := ctx.Isolate()
		token, err := argString(info, 0, "token")
		if err != nil {
			return syncOrRejected(iso, ctx, state, true, opName, nil, err)
		}
		subPath, hasSubPath := argOptionalString(info, 1)

		work := func() (any, error) {
			url, err := resolveFetchURL(state, token, subPath, hasSubPath)
			if err != nil {
				return nil, err
			}
			return doFetch(state.Ctx, url)
		}
		return syncOrAsync(iso, ctx, state, true, opName, work)
	}
}

func resolveFetchURL(state *State, token, subPath string, hasSubPath bool) (string, error) {
	cap, ok := state.Capabilities.Get(token)
	if !ok {
		return "", fmt.Errorf("invalid token for URL access")
	}
	switch cap.Kind {
	case capability.FetchURL:
		if hasSubPath {
			return "", fmt.Errorf("path parameter not allowed for specific URL tokens")
		}
		return cap.Value, nil
	case capability.FetchPrefix:
		if !hasSubPath {
			return "", fmt.Errorf("path parameter required for prefix tokens")
		}
		if strings.Contains(subPath, "..") {
			return "", fmt.Errorf("path traversal not allowed (contains '..')")
		}
		if strings.Contains(subPath, "://") {
			return "", fmt.Errorf("full URLs not allowed in path parameter")
		}
		return cap.Value + subPath, nil
	default:
		return "", fmt.Errorf("invalid token for URL access")
	}
}

func doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchResponseBytes))
}
