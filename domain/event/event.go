package event

import (
	"failly/domain"
	"time"
)

// DomainEvent is anything the relay can push to a transport session.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// Matched announces a committed pair to both sessions of a fresh room.
type Matched struct {
	Room         domain.RoomID
	Members      []domain.Member
	Announcement string
}

func (m Matched) RoomID() domain.RoomID {
	return m.Room
}

// NewMessage is a relayed chat message, broadcast to every session
// subscribed to the room, the sender's own included.
type NewMessage struct {
	Room     domain.RoomID
	SenderID domain.UserID
	Content  string
	Lang     string
	At       time.Time
}

func (m NewMessage) RoomID() domain.RoomID {
	return m.Room
}
