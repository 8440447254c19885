// Package runtime hosts the matchmaking and relay engine: connection
// registry, waiting pool, matchmaker, room directory, and event relay.
// It orchestrates the system without containing HTTP or socket plumbing.
package runtime

import (
	"sync"

	"failly/contract"
	"failly/domain"
)

// Registry is the bidirectional user/session mapping plus the
// session-to-sink routing table the transport layer registers into.
//
// Register never closes the session it overwrites: the old connection
// stays attached until the transport reports its disconnect, it just no
// longer resolves from the user side. All operations are independently
// atomic; nothing here blocks on I/O.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[domain.UserID]domain.SessionID
	bySession map[domain.SessionID]domain.UserID
	sinks     map[domain.SessionID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[domain.UserID]domain.SessionID),
		bySession: make(map[domain.SessionID]domain.UserID),
		sinks:     make(map[domain.SessionID]contract.EventSink),
	}
}

// Attach records the delivery sink of a freshly connected session,
// before any user has claimed it.
func (r *Registry) Attach(sessionID domain.SessionID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sessionID] = sink
}

// Register binds a user to a session, unconditionally overwriting any
// prior session for that user.
func (r *Registry) Register(userID domain.UserID, sessionID domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop the reverse entry of the session this user previously held,
	// otherwise a later disconnect of the old session would resolve to
	// the user and wipe the fresh mapping.
	if old, ok := r.byUser[userID]; ok && old != sessionID {
		delete(r.bySession, old)
	}
	r.byUser[userID] = sessionID
	r.bySession[sessionID] = userID
}

func (r *Registry) SessionOf(userID domain.UserID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.byUser[userID]
	return sessionID, ok
}

// UserOf is the reverse lookup, used at disconnect time since the
// transport layer identifies connections by session, not user.
func (r *Registry) UserOf(sessionID domain.SessionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.bySession[sessionID]
	return userID, ok
}

func (r *Registry) SinkOf(sessionID domain.SessionID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sinks[sessionID]
	return sink, ok
}

// Unregister removes the session from every index. The forward entry is
// removed only if it still points at this session; a user who already
// re-registered elsewhere keeps the newer mapping.
func (r *Registry) Unregister(sessionID domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, sessionID)
	userID, ok := r.bySession[sessionID]
	if !ok {
		return
	}
	delete(r.bySession, sessionID)
	if current, ok := r.byUser[userID]; ok && current == sessionID {
		delete(r.byUser, userID)
	}
}
