package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"failly/contract"
	"failly/domain"
	"failly/domain/event"
	"failly/moderation"

	"github.com/abadojack/whatlanggo"
)

// Relay delivers matched and chat-message events to the sessions
// subscribed to a room. Delivery is fire and forget: no acknowledgment,
// no retry, and a session whose sink rejects an event just misses it.
type Relay struct {
	log       *slog.Logger
	registry  contract.ConnectionRegistry
	rooms     contract.RoomDirectory
	moderator moderation.Moderator
	telemetry chan<- event.Telemetry
}

func NewRelay(log *slog.Logger, registry contract.ConnectionRegistry,
	rooms contract.RoomDirectory, moderator moderation.Moderator,
	telemetry chan<- event.Telemetry) *Relay {
	return &Relay{
		log:       log,
		registry:  registry,
		rooms:     rooms,
		moderator: moderator,
		telemetry: telemetry,
	}
}

// BroadcastMatched pushes the match announcement to every session
// subscribed to the room.
func (r *Relay) BroadcastMatched(ctx context.Context, roomID domain.RoomID, evt event.Matched) {
	r.deliver(ctx, roomID, evt)
}

// RelayMessage resolves the sending session to its user, sanitizes the
// text, and broadcasts it to the whole room, the sender's own session
// included, since clients reconcile their state from the echo.
//
// An unregistered sending session drops the message: logged, surfaced to
// no client.
func (r *Relay) RelayMessage(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID, text string) {
	senderID, ok := r.registry.UserOf(sessionID)
	if !ok {
		r.log.Error("dropping message from unregistered session",
			"session_id", sessionID, "room_id", roomID)
		r.emit(event.Telemetry{Type: event.MessageDroppedType, Room: roomID})
		return
	}

	info := whatlanggo.Detect(text)
	sanitized, hits := r.moderator.Censor(text)
	if len(hits) > 0 {
		r.log.Info("censored relayed message", "room_id", roomID, "hits", len(hits))
	}

	r.deliver(ctx, roomID, event.NewMessage{
		Room:     roomID,
		SenderID: senderID,
		Content:  sanitized,
		Lang:     info.Lang.Iso6391(),
		At:       time.Now().UTC(),
	})
	r.emit(event.Telemetry{Type: event.MessageRelayedType, Room: roomID, User: senderID})
}

func (r *Relay) deliver(ctx context.Context, roomID domain.RoomID, evt event.DomainEvent) {
	for _, sessionID := range r.rooms.SessionsIn(roomID) {
		sink, ok := r.registry.SinkOf(sessionID)
		if !ok {
			// Disconnected member; the room keeps its routing key anyway.
			continue
		}
		if err := sink.Consume(ctx, evt); err != nil {
			r.log.Warn(fmt.Sprintf("Delivery failed for session %s", sessionID),
				"room_id", roomID, "error", err)
		}
	}
}

func (r *Relay) emit(t event.Telemetry) {
	if r.telemetry == nil {
		return
	}
	select {
	case r.telemetry <- t:
	default:
		r.log.Debug("Telemetry event lost")
	}
}
