package event

import (
	"failly/domain"
)

// Telemetry events feed the monitoring pipeline. They are best-effort:
// the engine drops them when the telemetry channel is full.

type Type string

const (
	UserEnqueuedType    Type = "USER_ENQUEUED"
	MatchCommittedType  Type = "MATCH_COMMITTED"
	MessageRelayedType  Type = "MESSAGE_RELAYED"
	MessageDroppedType  Type = "MESSAGE_DROPPED"
	StaleEntrySkipType  Type = "STALE_ENTRY_SKIPPED"
	RestartedAfterPanic Type = "WORKER_RESTARTED_AFTER_PANIC"
)

type Telemetry struct {
	Type Type
	Tag  domain.Tag
	Room domain.RoomID
	User domain.UserID
}

// Handler reacts to one kind of telemetry event.
// Based on the chain of responsibility pattern.
type Handler interface {
	Handle(t Telemetry)
}
