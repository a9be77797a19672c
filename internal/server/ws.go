package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleCrawlWS streams progress updates for one task over a
// websocket. The current snapshot is sent first, then live updates
// until the run reaches a terminal state or the client disconnects.
func (s *Server) handleCrawlWS(w http.ResponseWriter, r *http.Request) {
	t := s.task(r.PathValue("id"))
	if t == nil {
		writeError(w, http.StatusNotFound, "unknown task")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := t.subscribe()
	defer unsubscribe()

	// Discard client frames, but use the read loop to notice closes.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Snapshot first so late subscribers see where the run stands.
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(t.poll.State()); err != nil {
		return
	}

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				// Terminal state: send the final snapshot and close.
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				_ = conn.WriteJSON(t.poll.State())
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}
