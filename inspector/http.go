package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// discoveryTarget is the DevTools discovery payload shape returned by
// /json and /json/list.
type discoveryTarget struct {
	Description          string `json:"description"`
	DevtoolsFrontendURL   string `json:"devtoolsFrontendUrl"`
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Type                  string `json:"type"`
	URL                   string `json:"url"`
	WebSocketDebuggerURL  string `json:"webSocketDebuggerUrl"`
}

func (insp *Inspector) target(host string) discoveryTarget {
	wsURL := fmt.Sprintf("ws://%s/ws/%s", host, insp.SessionID)
	return discoveryTarget{
		Description:         "",
		DevtoolsFrontendURL: "devtools://devtools/bundled/js_app.html?ws=" + host + "/ws/" + insp.SessionID,
		ID:                  insp.SessionID,
		Title:               "myco",
		Type:                "node",
		URL:                 "file://",
		WebSocketDebuggerURL: wsURL,
	}
}

// serveHTTP runs the discovery + upgrade endpoints until ctx is cancelled.
func (insp *Inspector) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/json", insp.handleDiscovery)
	mux.HandleFunc("/json/list", insp.handleDiscovery)
	mux.HandleFunc("/json/version", insp.handleVersion)
	mux.HandleFunc("/ws/", insp.handleUpgrade)

	srv := &http.Server{Addr: ":" + strconv.Itoa(insp.opts.Port), Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("inspector http server: %w", err)
		}
		return nil
	}
}

func (insp *Inspector) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]discoveryTarget{insp.target(r.Host)})
}

func (insp *Inspector) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"Browser":         "myco/1.0",
		"Protocol-Version": "1.3",
	})
}
