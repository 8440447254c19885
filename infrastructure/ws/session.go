package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"failly/contract"
	"failly/domain"
	"failly/domain/event"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

// Session owns one websocket connection. Outbound frames go through a
// buffered send channel drained by a single writer goroutine, because
// gorilla connections allow only one concurrent writer. A full send
// buffer drops the frame; the relay is best-effort by contract.
//
// The relay may still hold this session as a sink while the connection
// tears down, so Consume and shutdown synchronize on a closed flag and
// the send channel is only ever closed under that lock.
type Session struct {
	id     domain.SessionID
	conn   *websocket.Conn
	send   chan []byte
	log    *slog.Logger
	engine Engine

	mu     sync.Mutex
	closed bool
}

// Engine is the slice of the runtime engine a session needs.
type Engine interface {
	OnConnect(sessionID domain.SessionID, sink contract.EventSink)
	OnRegisterUser(sessionID domain.SessionID, userID domain.UserID)
	OnDisconnect(sessionID domain.SessionID)
	OnSendMessage(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID, text string)
}

// Consume implements contract.EventSink: it encodes the domain event as
// a server frame and enqueues it for the writer goroutine.
func (s *Session) Consume(_ context.Context, e event.DomainEvent) error {
	frame, ok := toServerFrame(e)
	if !ok {
		return nil
	}
	bytes, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	select {
	case s.send <- bytes:
		return nil
	default:
		return fmt.Errorf("send buffer full for session %s", s.id)
	}
}

// shutdown closes the send channel exactly once, after which Consume
// rejects instead of sending.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

func toServerFrame(e event.DomainEvent) (serverFrame, bool) {
	switch evt := e.(type) {
	case event.Matched:
		return serverFrame{
			Type:         frameMatched,
			RoomID:       string(evt.Room),
			Members:      evt.Members,
			Announcement: evt.Announcement,
		}, true
	case event.NewMessage:
		return serverFrame{
			Type:     frameNewMessage,
			RoomID:   string(evt.Room),
			SenderID: string(evt.SenderID),
			Text:     evt.Content,
			Lang:     evt.Lang,
			SentAt:   lo.ToPtr(evt.At),
		}, true
	}
	return serverFrame{}, false
}

// readPump consumes client frames until the connection dies, then
// reports the disconnect. It is the only reader of the connection.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.engine.OnDisconnect(s.id)
		_ = s.conn.Close()
		s.shutdown()
	}()

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Session closed unexpectedly", "session_id", s.id, "error", err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.log.Warn("Discarding malformed frame", "session_id", s.id, "error", err)
			continue
		}
		s.dispatch(ctx, frame)
	}
}

func (s *Session) dispatch(ctx context.Context, frame clientFrame) {
	switch frame.Type {
	case frameRegister:
		if frame.UserID == "" {
			s.log.Warn("Register frame without user id", "session_id", s.id)
			return
		}
		s.engine.OnRegisterUser(s.id, domain.UserID(frame.UserID))
	case frameSendMessage:
		if frame.RoomID == "" {
			s.log.Warn("Message frame without room id", "session_id", s.id)
			return
		}
		s.engine.OnSendMessage(ctx, s.id, domain.RoomID(frame.RoomID), frame.Text)
	default:
		s.log.Debug("Unknown frame type", "session_id", s.id, "type", frame.Type)
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It is the only writer of the connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
