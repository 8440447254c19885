package runtime

import (
	"sync"
	"time"

	"failly/domain"
)

// Pool is the per-tag FIFO of users awaiting a partner. Entries never
// expire; disconnect is the only eviction path. Per-tag queues are
// expected to stay small (tens of waiters), so membership checks are
// linear scans rather than a secondary index.
type Pool struct {
	mu     sync.Mutex
	queues map[domain.Tag][]domain.WaitingEntry
	clock  func() time.Time
}

func NewPool() *Pool {
	return &Pool{
		queues: make(map[domain.Tag][]domain.WaitingEntry),
		clock:  time.Now,
	}
}

// Enqueue appends the user to the tag's queue. Enqueueing a user already
// waiting under the same tag is a no-op; the same user may wait under
// several different tags at once.
func (p *Pool) Enqueue(tag domain.Tag, userID domain.UserID, sessionID domain.SessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.queues[tag] {
		if entry.UserID == userID {
			return
		}
	}
	p.queues[tag] = append(p.queues[tag], domain.WaitingEntry{
		UserID:    userID,
		SessionID: sessionID,
		QueuedAt:  p.clock(),
	})
}

// DequeueFirstOtherThan removes and returns the earliest-enqueued entry
// whose user differs from exclude, preserving the relative order of the
// remainder. A user alone in the queue is never returned to themselves.
func (p *Pool) DequeueFirstOtherThan(tag domain.Tag, exclude domain.UserID) (domain.WaitingEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	queue := p.queues[tag]
	for i, entry := range queue {
		if entry.UserID == exclude {
			continue
		}
		p.queues[tag] = append(queue[:i:i], queue[i+1:]...)
		if len(p.queues[tag]) == 0 {
			delete(p.queues, tag)
		}
		return entry, true
	}
	return domain.WaitingEntry{}, false
}

// RemoveUser scans every tag and drops any entry for the user. It
// returns the tags actually modified, which callers use for logging
// only, not correctness.
func (p *Pool) RemoveUser(userID domain.UserID) []domain.Tag {
	p.mu.Lock()
	defer p.mu.Unlock()

	var touched []domain.Tag
	for tag, queue := range p.queues {
		kept := queue[:0:0]
		for _, entry := range queue {
			if entry.UserID != userID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == len(queue) {
			continue
		}
		touched = append(touched, tag)
		if len(kept) == 0 {
			delete(p.queues, tag)
			continue
		}
		p.queues[tag] = kept
	}
	return touched
}

// Requeue reinserts an entry at the end of the tag's queue, used when a
// dequeued partner turned out unusable but should keep waiting.
func (p *Pool) Requeue(tag domain.Tag, entry domain.WaitingEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.queues[tag] {
		if existing.UserID == entry.UserID {
			return
		}
	}
	p.queues[tag] = append(p.queues[tag], entry)
}

// Waiting reports the queue length for a tag.
func (p *Pool) Waiting(tag domain.Tag) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queues[tag])
}

// Snapshot returns the current queue sizes per tag, for observability.
func (p *Pool) Snapshot() map[domain.Tag]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[domain.Tag]int, len(p.queues))
	for tag, queue := range p.queues {
		out[tag] = len(queue)
	}
	return out
}
