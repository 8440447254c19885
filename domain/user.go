// Package domain contains core concepts of the matchmaking system.
// This file defines Profile entities and related invariants.
package domain

import "time"

// Profile is the durable account record. The matchmaking core reads only
// DisplayName; credentials belong to the HTTP surface.
type Profile struct {
	UserID       UserID
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}
