// Package ws is the realtime side of the system: one websocket per
// connected client, registered as that user's live channel.
package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// frame is the wire envelope in both directions.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Session wraps one websocket connection behind a buffered send queue.
// Send never touches the connection directly: all writes go through the
// write pump, so pushes from request handlers and pings never interleave.
type Session struct {
	sid       string
	conn      *websocket.Conn
	send      chan frame
	log       *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn, buffer int, log *slog.Logger) *Session {
	return &Session{
		sid:  uuid.NewString(),
		conn: conn,
		send: make(chan frame, buffer),
		log:  log,
		done: make(chan struct{}),
	}
}

func (s *Session) SessionID() string { return s.sid }

// Send queues one event for delivery. A session with a full queue or a
// closed connection reports an error; the caller's stored record is the
// durable copy, so nothing is retried here.
func (s *Session) Send(event string, data any) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s closed", s.sid)
	case s.send <- frame{Event: event, Data: data}:
		return nil
	default:
		return fmt.Errorf("session %s send queue full", s.sid)
	}
}

// writePump serializes every outgoing frame and keeps the connection
// alive with pings. It owns the write half of the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		case f := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				s.log.Debug("Write failed, closing session", slog.String("session_id", s.sid), slog.Any("error", err))
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

// close is idempotent; both pumps and the handler may race to call it.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
