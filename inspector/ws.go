package inspector

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// The inspector is a localhost developer tool, not a public endpoint,
	// so any origin is accepted for the loopback debug server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session pairs one live WebSocket connection with the read/write pump
// goroutines feeding it. Only ever touched from those two goroutines plus
// the attach handoff; nothing here is shared with the engine thread
// directly — all communication crosses through Inspector's channels.
type session struct {
	conn *websocket.Conn
	done chan struct{}
}

// handleUpgrade implements "GET /ws/<session-id> — WebSocket upgrade;
// session-id MUST match or the request is rejected".
func (insp *Inspector) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ws/")
	if id != insp.SessionID {
		http.Error(w, "unknown session id", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s := &session{conn: conn, done: make(chan struct{})}
	insp.attach <- s

	go insp.readPump(s)
	go insp.writePump(s)
}

// readPump feeds every client frame into Inspector.incoming for Poll to
// dispatch on the engine thread; it never touches engine state itself.
func (insp *Inspector) readPump(s *session) {
	defer close(s.done)
	defer s.conn.Close()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case insp.incoming <- data:
		default:
			// Backlog full: drop rather than block the socket reader
			// indefinitely behind a stalled engine thread.
		}
	}
}

// writePump drains Inspector.outgoing to the socket until the read side
// observes the connection close.
func (insp *Inspector) writePump(s *session) {
	for {
		select {
		case msg := <-insp.outgoing:
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
