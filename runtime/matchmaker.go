package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"failly/contract"
	"failly/domain"
	"failly/domain/event"
)

// Matchmaker pairs users posting under the same tag. Attempts for one
// tag are serialized through a per-tag lock so two concurrent attempts
// can never dequeue the same partner or enqueue a user twice; attempts
// for different tags proceed independently.
type Matchmaker struct {
	log      *slog.Logger
	registry contract.ConnectionRegistry
	pool     contract.WaitingPool
	rooms    contract.RoomDirectory
	relay    *Relay
	profiles contract.ProfileDirectory

	mu       sync.Mutex
	tagLocks map[domain.Tag]*sync.Mutex

	telemetry chan<- event.Telemetry
}

func NewMatchmaker(log *slog.Logger, registry contract.ConnectionRegistry,
	pool contract.WaitingPool, rooms contract.RoomDirectory, relay *Relay,
	profiles contract.ProfileDirectory, telemetry chan<- event.Telemetry) *Matchmaker {
	return &Matchmaker{
		log:       log,
		registry:  registry,
		pool:      pool,
		rooms:     rooms,
		relay:     relay,
		profiles:  profiles,
		telemetry: telemetry,
	}
}

// AttemptMatch runs one matchmaking attempt for a user who just posted
// under a tag. Outcomes:
//
//   - requester not connected: silent no-op, a normal transient state
//   - no usable partner waiting: the requester is enqueued and waits
//   - partner found: a room is created and both sessions are notified
//
// A profile lookup failure aborts the attempt; an already-dequeued
// partner is then discarded rather than requeued, to avoid resurrecting
// a broken record.
func (m *Matchmaker) AttemptMatch(ctx context.Context, userID domain.UserID, tag domain.Tag) error {
	sessionID, ok := m.registry.SessionOf(userID)
	if !ok {
		m.log.Debug("Match attempt for offline user, ignoring",
			"user_id", userID, "tag", tag)
		return nil
	}

	// Resolve everything knowable before entering the critical section,
	// so no external lookup runs while the tag is locked against other
	// attempts. Only the partner's name is unknowable until dequeue.
	requesterName, err := m.profiles.DisplayName(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolving requester %s: %w", userID, err)
	}

	lock := m.tagLock(tag)
	lock.Lock()
	defer lock.Unlock()

	// Bounded by the queue length: every iteration removes one entry.
	for {
		entry, found := m.pool.DequeueFirstOtherThan(tag, userID)
		if !found {
			m.pool.Enqueue(tag, userID, sessionID)
			m.log.Info("No partner waiting, user enqueued",
				"user_id", userID, "tag", tag)
			m.emit(event.Telemetry{Type: event.UserEnqueuedType, Tag: tag, User: userID})
			return nil
		}

		if m.stale(entry) {
			m.log.Warn("Skipping stale waiting entry",
				"user_id", entry.UserID, "session_id", entry.SessionID, "tag", tag)
			m.emit(event.Telemetry{Type: event.StaleEntrySkipType, Tag: tag, User: entry.UserID})
			continue
		}

		partnerName, err := m.profiles.DisplayName(ctx, entry.UserID)
		if err != nil {
			// The partner entry is gone from the pool and stays gone.
			return fmt.Errorf("resolving partner %s: %w", entry.UserID, err)
		}

		m.commit(ctx, tag,
			domain.Member{UserID: userID, DisplayName: requesterName}, sessionID,
			domain.Member{UserID: entry.UserID, DisplayName: partnerName}, entry.SessionID)
		return nil
	}
}

// stale reports whether a waiting entry no longer routes to a live
// session: either the session's sink is gone, or the user re-registered
// on a different session since enqueueing.
func (m *Matchmaker) stale(entry domain.WaitingEntry) bool {
	if _, ok := m.registry.SinkOf(entry.SessionID); !ok {
		return true
	}
	current, ok := m.registry.SessionOf(entry.UserID)
	return !ok || current != entry.SessionID
}

// commit finalizes a match: room allocation, routing subscription for
// both sessions, and the matched announcement. Once committed, no later
// attempt for this tag affects the pair.
func (m *Matchmaker) commit(ctx context.Context, tag domain.Tag,
	requester domain.Member, requesterSession domain.SessionID,
	partner domain.Member, partnerSession domain.SessionID) {

	members := [2]domain.Member{partner, requester}
	roomID := m.rooms.Create(tag, members)
	m.rooms.Join(requesterSession, roomID)
	m.rooms.Join(partnerSession, roomID)

	announcement := fmt.Sprintf("%s and %s both failed at %q. Say hi.",
		partner.DisplayName, requester.DisplayName, string(tag))

	m.log.Info("Match committed",
		"tag", tag, "room_id", roomID,
		"users", []domain.UserID{partner.UserID, requester.UserID})
	m.emit(event.Telemetry{Type: event.MatchCommittedType, Tag: tag, Room: roomID})

	m.relay.BroadcastMatched(ctx, roomID, event.Matched{
		Room:         roomID,
		Members:      members[:],
		Announcement: announcement,
	})
}

func (m *Matchmaker) tagLock(tag domain.Tag) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tagLocks == nil {
		m.tagLocks = make(map[domain.Tag]*sync.Mutex)
	}
	lock, ok := m.tagLocks[tag]
	if !ok {
		lock = &sync.Mutex{}
		m.tagLocks[tag] = lock
	}
	return lock
}

func (m *Matchmaker) emit(t event.Telemetry) {
	if m.telemetry == nil {
		return
	}
	select {
	case m.telemetry <- t:
	default:
		m.log.Debug("Telemetry event lost")
	}
}
