package runtime

import (
	"testing"

	"failly/domain"

	"github.com/stretchr/testify/require"
)

func TestRooms_Create_Stores_Tag_And_Members(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	members := [2]domain.Member{
		{UserID: "alice", DisplayName: "Alice"},
		{UserID: "bob", DisplayName: "Bob"},
	}

	roomID := rooms.Create("burnt the rice", members)

	room, ok := rooms.Room(roomID)
	req.True(ok)
	req.Equal(roomID, room.ID)
	req.Equal(domain.Tag("burnt the rice"), room.Tag)
	req.Equal(members, room.Members)
	req.False(room.CreatedAt.IsZero())
	req.Equal(1, rooms.Count())
}

func TestRooms_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	roomID := rooms.Create("burnt the rice", [2]domain.Member{})

	rooms.Join("s1", roomID)
	rooms.Join("s1", roomID)
	rooms.Join("s2", roomID)

	req.ElementsMatch([]domain.SessionID{"s1", "s2"}, rooms.SessionsIn(roomID))
}

func TestRooms_Unknown_Room_Resolves_To_Nothing(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	_, ok := rooms.Room("missing")
	req.False(ok)
	req.Empty(rooms.SessionsIn("missing"))
}
