// Package ws is the websocket transport for the matchmaking engine.
// Each connection is one session; the engine never sees a socket, only
// the session id and its event sink.
package ws

import (
	"time"

	"failly/domain"
)

// clientFrame is what a client may send over the socket.
// Types: "register" binds the connection to a user id; "send_message"
// relays text into a room.
type clientFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId,omitempty"`
	RoomID string `json:"roomId,omitempty"`
	Text   string `json:"text,omitempty"`
}

// serverFrame is what the server pushes to a client.
// Types: "matched" and "new_message".
type serverFrame struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId,omitempty"`
	Members      []domain.Member `json:"members,omitempty"`
	Announcement string          `json:"announcement,omitempty"`
	SenderID     string          `json:"senderId,omitempty"`
	Text         string          `json:"text,omitempty"`
	Lang         string          `json:"lang,omitempty"`
	SentAt       *time.Time      `json:"sentAt,omitempty"`
}

const (
	frameRegister    = "register"
	frameSendMessage = "send_message"
	frameMatched     = "matched"
	frameNewMessage  = "new_message"
)
