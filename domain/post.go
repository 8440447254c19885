package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post is a short failure confession. Posts are plain CRUD data; the
// matchmaking core only consumes the (author, tag) signal of a fresh post.
type Post struct {
	ID        uuid.UUID
	AuthorID  UserID
	Tag       Tag
	Content   string
	Reactions map[string]uint64
	CreatedAt time.Time
}

// ReactionKinds lists the reactions a post accepts.
var ReactionKinds = []string{"hug", "same", "lol"}

func ValidReaction(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}
