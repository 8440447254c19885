package runtime

import (
	"testing"

	"failly/domain"

	"github.com/stretchr/testify/require"
)

func TestPool_DequeueFirstOtherThan_Is_FIFO(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	tag := domain.Tag("burnt the rice")

	// Given three users waiting in order
	pool.Enqueue(tag, "alice", "s-alice")
	pool.Enqueue(tag, "bob", "s-bob")
	pool.Enqueue(tag, "carol", "s-carol")

	// When someone else dequeues a partner
	entry, found := pool.DequeueFirstOtherThan(tag, "dave")

	// Then the earliest waiter comes out first
	req.True(found)
	req.Equal(domain.UserID("alice"), entry.UserID)
	req.Equal(domain.SessionID("s-alice"), entry.SessionID)

	// And the remainder keeps its order
	entry, found = pool.DequeueFirstOtherThan(tag, "dave")
	req.True(found)
	req.Equal(domain.UserID("bob"), entry.UserID)
}

func TestPool_DequeueFirstOtherThan_Never_Returns_The_Excluded_User(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	tag := domain.Tag("failed the exam")

	// Given a user alone in the queue
	pool.Enqueue(tag, "alice", "s-alice")

	// When that same user looks for a partner
	_, found := pool.DequeueFirstOtherThan(tag, "alice")

	// Then nothing comes out and the entry stays queued
	req.False(found)
	req.Equal(1, pool.Waiting(tag))
}

func TestPool_DequeueFirstOtherThan_Skips_Excluded_But_Takes_The_Next(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	tag := domain.Tag("failed the exam")

	pool.Enqueue(tag, "alice", "s-alice")
	pool.Enqueue(tag, "bob", "s-bob")

	// When the head of the queue is the excluded user
	entry, found := pool.DequeueFirstOtherThan(tag, "alice")

	// Then the next waiter is returned and the excluded one stays
	req.True(found)
	req.Equal(domain.UserID("bob"), entry.UserID)
	req.Equal(1, pool.Waiting(tag))
}

func TestPool_Enqueue_Same_User_Same_Tag_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	tag := domain.Tag("missed the deadline")

	// When a user enqueues twice under one tag
	pool.Enqueue(tag, "alice", "s-alice")
	pool.Enqueue(tag, "alice", "s-alice")

	req.Equal(1, pool.Waiting(tag))
}

func TestPool_Same_User_May_Wait_Under_Several_Tags(t *testing.T) {
	req := require.New(t)
	pool := NewPool()

	pool.Enqueue("burnt the rice", "alice", "s-alice")
	pool.Enqueue("missed the deadline", "alice", "s-alice")

	req.Equal(1, pool.Waiting("burnt the rice"))
	req.Equal(1, pool.Waiting("missed the deadline"))
}

func TestPool_RemoveUser_Drops_Entries_Across_All_Tags(t *testing.T) {
	req := require.New(t)
	pool := NewPool()

	// Given a user waiting under two tags, alongside another waiter
	pool.Enqueue("burnt the rice", "alice", "s-alice")
	pool.Enqueue("burnt the rice", "bob", "s-bob")
	pool.Enqueue("missed the deadline", "alice", "s-alice")

	// When the user is removed
	touched := pool.RemoveUser("alice")

	// Then both of their entries are gone and the other waiter remains
	req.ElementsMatch([]domain.Tag{"burnt the rice", "missed the deadline"}, touched)
	req.Equal(1, pool.Waiting("burnt the rice"))
	req.Equal(0, pool.Waiting("missed the deadline"))

	entry, found := pool.DequeueFirstOtherThan("burnt the rice", "nobody")
	req.True(found)
	req.Equal(domain.UserID("bob"), entry.UserID)
}

func TestPool_RemoveUser_Absent_Touches_Nothing(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	pool.Enqueue("burnt the rice", "alice", "s-alice")

	touched := pool.RemoveUser("ghost")

	req.Empty(touched)
	req.Equal(1, pool.Waiting("burnt the rice"))
}

func TestPool_Requeue_Appends_At_The_End(t *testing.T) {
	req := require.New(t)
	pool := NewPool()
	tag := domain.Tag("burnt the rice")

	pool.Enqueue(tag, "alice", "s-alice")
	entry, found := pool.DequeueFirstOtherThan(tag, "nobody")
	req.True(found)

	pool.Enqueue(tag, "bob", "s-bob")

	// When the dequeued entry is put back
	pool.Requeue(tag, entry)

	// Then it sits behind the waiter that arrived meanwhile
	next, found := pool.DequeueFirstOtherThan(tag, "nobody")
	req.True(found)
	req.Equal(domain.UserID("bob"), next.UserID)
	next, found = pool.DequeueFirstOtherThan(tag, "nobody")
	req.True(found)
	req.Equal(domain.UserID("alice"), next.UserID)
}

func TestPool_Snapshot_Reports_Queue_Sizes(t *testing.T) {
	req := require.New(t)
	pool := NewPool()

	pool.Enqueue("burnt the rice", "alice", "s-alice")
	pool.Enqueue("burnt the rice", "bob", "s-bob")
	pool.Enqueue("missed the deadline", "carol", "s-carol")

	snapshot := pool.Snapshot()

	req.Equal(map[domain.Tag]int{
		"burnt the rice":      2,
		"missed the deadline": 1,
	}, snapshot)
}
