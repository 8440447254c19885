//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_contract.go -package=mocks failly/contract ProfileDirectory,EventSink
package contract

import (
	"context"
	"reflect"

	"failly/domain"
	"failly/domain/event"
)

// EventSink is one live transport session seen from the engine. Consume
// pushes an event toward the client; delivery is best-effort.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// ConnectionRegistry maps stable user identities to live transport
// sessions. At most one live session per user; registering again
// overwrites the previous mapping without closing the old session.
// Absence is a normal outcome, reported by the ok bool, never an error.
type ConnectionRegistry interface {
	Attach(sessionID domain.SessionID, sink EventSink)
	Register(userID domain.UserID, sessionID domain.SessionID)
	SessionOf(userID domain.UserID) (domain.SessionID, bool)
	UserOf(sessionID domain.SessionID) (domain.UserID, bool)
	SinkOf(sessionID domain.SessionID) (EventSink, bool)
	Unregister(sessionID domain.SessionID)
}

// WaitingPool is the per-tag FIFO of users seeking a partner.
type WaitingPool interface {
	Enqueue(tag domain.Tag, userID domain.UserID, sessionID domain.SessionID)
	DequeueFirstOtherThan(tag domain.Tag, exclude domain.UserID) (domain.WaitingEntry, bool)
	RemoveUser(userID domain.UserID) []domain.Tag
	Requeue(tag domain.Tag, entry domain.WaitingEntry)
}

// RoomDirectory allocates rooms and scopes message routing to them.
// There is no leave operation: a disconnected session simply stops
// resolving to a sink.
type RoomDirectory interface {
	Create(tag domain.Tag, members [2]domain.Member) domain.RoomID
	Join(sessionID domain.SessionID, roomID domain.RoomID)
	SessionsIn(roomID domain.RoomID) []domain.SessionID
	Room(roomID domain.RoomID) (domain.Room, bool)
}

// ProfileDirectory is the external storage collaborator the matching
// engine consults for display names. A lookup failure is fatal to the
// current matchmaking attempt only.
type ProfileDirectory interface {
	DisplayName(ctx context.Context, userID domain.UserID) (string, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself. Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
