package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sitecloner/internal/progress"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin; the CORS policy is wildcard.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// wsSink forwards progress events over a websocket connection. Sends are
// serialized; gorilla allows only one concurrent writer.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

func (s *wsSink) Send(ev progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (s *wsSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := time.Now().Add(wsWriteTimeout)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

// subscribeProgress handles GET /ws/clone/{job_id}. One subscriber per job:
// attaching replaces and closes any prior connection.
func (s *Server) subscribeProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}

	if _, err := s.store.Get(r.Context(), jobID); err != nil {
		deadline := time.Now().Add(wsWriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown job")
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
		return
	}

	sink := newWSSink(conn)
	s.registry.Attach(jobID, sink)
	defer s.registry.Detach(jobID, sink)

	// Incoming frames are discarded; the read loop only notices closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed unexpectedly",
					zap.String("job_id", jobID), zap.Error(err))
			}
			return
		}
	}
}
