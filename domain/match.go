// Package domain contains core concepts of the matchmaking system.
// This file defines the identities and pairing entities.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"
)

// UserID is the stable identifier of a registered account. Never reused.
type UserID string

// SessionID identifies one live transport connection. Unique per
// connection, invalidated on disconnect.
type SessionID string

// Tag is a failure category. Equality is exact and case-sensitive; the tag
// is both a post label and the matchmaking partition key.
type Tag string

// RoomID identifies an ephemeral routing scope grouping exactly two
// matched users.
type RoomID string

// WaitingEntry records who is waiting for a partner and on which
// connection, captured at enqueue time.
type WaitingEntry struct {
	UserID    UserID
	SessionID SessionID
	QueuedAt  time.Time
}

// Member is a room participant with the nickname it had at match time.
type Member struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Room pairs exactly two users. Rooms live in memory only, for the
// remainder of the process.
type Room struct {
	ID        RoomID
	Tag       Tag
	Members   [2]Member
	CreatedAt time.Time
}
