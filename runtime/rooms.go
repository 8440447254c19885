package runtime

import (
	"sync"
	"time"

	"failly/domain"

	"github.com/google/uuid"
)

// Rooms allocates room identifiers and tracks which sessions receive
// relay events for each room. Rooms are never torn down: a session that
// disconnects simply stops resolving to a sink, and its partner keeps
// sending into an unattended routing key.
type Rooms struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomID]domain.Room
	routing map[domain.RoomID]map[domain.SessionID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:   make(map[domain.RoomID]domain.Room),
		routing: make(map[domain.RoomID]map[domain.SessionID]struct{}),
	}
}

// Create allocates a fresh room. The uuid identifier is unique with
// overwhelming probability across the process lifetime.
func (r *Rooms) Create(tag domain.Tag, members [2]domain.Member) domain.RoomID {
	roomID := domain.RoomID(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = domain.Room{
		ID:        roomID,
		Tag:       tag,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	r.routing[roomID] = make(map[domain.SessionID]struct{})
	return roomID
}

// Join subscribes a session to the room's routing key. Idempotent.
func (r *Rooms) Join(sessionID domain.SessionID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routing[roomID]; !ok {
		r.routing[roomID] = make(map[domain.SessionID]struct{})
	}
	r.routing[roomID][sessionID] = struct{}{}
}

// SessionsIn returns the sessions currently subscribed to the room.
func (r *Rooms) SessionsIn(roomID domain.RoomID) []domain.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.routing[roomID]
	out := make([]domain.SessionID, 0, len(members))
	for sessionID := range members {
		out = append(out, sessionID)
	}
	return out
}

func (r *Rooms) Room(roomID domain.RoomID) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// Count reports the number of live rooms, for observability.
func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
