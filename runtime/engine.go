package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"failly/contract"
	"failly/domain"
	"failly/domain/event"
	"failly/moderation"
)

// Engine is the single entry point the transport layer and the post
// service talk to. It owns the registry, the waiting pool, the room
// directory, the matchmaker, and the relay, and exposes the inbound
// operations of the core.
type Engine struct {
	log        *slog.Logger
	registry   *Registry
	pool       *Pool
	rooms      *Rooms
	relay      *Relay
	matchmaker *Matchmaker
}

func NewEngine(log *slog.Logger, profiles contract.ProfileDirectory,
	moderator moderation.Moderator, telemetry chan<- event.Telemetry) *Engine {
	registry := NewRegistry()
	pool := NewPool()
	rooms := NewRooms()
	relay := NewRelay(log, registry, rooms, moderator, telemetry)
	return &Engine{
		log:        log,
		registry:   registry,
		pool:       pool,
		rooms:      rooms,
		relay:      relay,
		matchmaker: NewMatchmaker(log, registry, pool, rooms, relay, profiles, telemetry),
	}
}

// NotifyUserPosted is the signal from the post-creation collaborator
// that a user just posted under a tag. The caller resolves the tag; the
// engine never re-derives it from storage.
func (e *Engine) NotifyUserPosted(ctx context.Context, userID domain.UserID, tag domain.Tag) error {
	return e.matchmaker.AttemptMatch(ctx, userID, tag)
}

// OnConnect records the delivery sink of a new transport session.
func (e *Engine) OnConnect(sessionID domain.SessionID, sink contract.EventSink) {
	e.registry.Attach(sessionID, sink)
	e.log.Debug("Session connected", "session_id", sessionID)
}

// OnRegisterUser binds a session to a user identity.
func (e *Engine) OnRegisterUser(sessionID domain.SessionID, userID domain.UserID) {
	e.registry.Register(userID, sessionID)
	e.log.Info("User registered on session", "user_id", userID, "session_id", sessionID)
}

// OnDisconnect removes the session from the registry and the user from
// every waiting queue. A room the user was already paired into is left
// untouched.
func (e *Engine) OnDisconnect(sessionID domain.SessionID) {
	userID, registered := e.registry.UserOf(sessionID)
	e.registry.Unregister(sessionID)
	if !registered {
		e.log.Debug("Anonymous session disconnected", "session_id", sessionID)
		return
	}
	if touched := e.pool.RemoveUser(userID); len(touched) > 0 {
		e.log.Info(fmt.Sprintf("Removed %s from %d waiting queue(s)", userID, len(touched)),
			"tags", touched)
	}
	e.log.Debug("Session disconnected", "session_id", sessionID, "user_id", userID)
}

// OnSendMessage relays a chat message from a session into its room.
func (e *Engine) OnSendMessage(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID, text string) {
	e.relay.RelayMessage(ctx, sessionID, roomID, text)
}

// Room exposes room metadata to the HTTP surface.
func (e *Engine) Room(roomID domain.RoomID) (domain.Room, bool) {
	return e.rooms.Room(roomID)
}

// Stats feeds the monitoring snapshot.
func (e *Engine) Stats() (waiting map[domain.Tag]int, rooms int) {
	return e.pool.Snapshot(), e.rooms.Count()
}
