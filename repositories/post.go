//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=../mocks/mock_post_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"failly/domain"
	"failly/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IPostRepository interface {
	StorePost(post domain.Post) error
	GetPost(id uuid.UUID) (domain.Post, error)
	ListByTag(tag domain.Tag, cursor *string) ([]domain.Post, *string, error)
	AddReaction(id uuid.UUID, kind string) (uint64, error)
}

// PostRepository persists confessions in BadgerDB.
//
// The listing key is "post:{taglen}:{tag}:{timestamp_padded}:{uuid}" so
// a prefix scan over a tag yields posts in chronological order; the
// 19-digit zero padding keeps lexicographic and time order identical,
// and the uuid disambiguates two posts landing on the same nanosecond.
// Tags are free text and may contain the separator, so the byte length
// in front keeps the prefix of one tag from matching keys of another
// (tag "a" versus tag "a:123"). A second key, "postid:{uuid}", points
// at the listing key for direct lookups.
type PostRepository struct {
	db         *badger.DB
	log        *slog.Logger
	limitPosts *int
}

func NewPostRepository(db *badger.DB, log *slog.Logger, limitPosts *int) PostRepository {
	return PostRepository{db: db, log: log, limitPosts: limitPosts}
}

type diskPost struct {
	ID        string            `json:"id"`
	AuthorID  string            `json:"author_id"`
	Tag       string            `json:"tag"`
	Content   string            `json:"content"`
	Reactions map[string]uint64 `json:"reactions"`
	CreatedAt time.Time         `json:"created_at"`
}

func listKey(post domain.Post) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s",
		listPrefix(post.Tag), post.CreatedAt.UnixNano(), post.ID))
}

func listPrefix(tag domain.Tag) string {
	return fmt.Sprintf("post:%d:%s:", len(tag), tag)
}

func idKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("postid:%s", id))
}

func (r PostRepository) StorePost(post domain.Post) error {
	bytes, err := json.Marshal(fromPost(post))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(idKey(post.ID), listKey(post)); err != nil {
			return err
		}
		return txn.Set(listKey(post), bytes)
	})
}

func (r PostRepository) GetPost(id uuid.UUID) (domain.Post, error) {
	var disk diskPost
	err := r.db.View(func(txn *badger.Txn) error {
		return r.readByID(txn, id, &disk)
	})
	if err != nil {
		return domain.Post{}, err
	}
	return toPost(disk)
}

// ListByTag retrieves the newest posts for a tag with a reverse prefix
// scan; the cursor is the key suffix of the last post of the previous
// page.
func (r PostRepository) ListByTag(tag domain.Tag, cursor *string) ([]domain.Post, *string, error) {
	var diskPosts []diskPost
	var lastKey string
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := listPrefix(tag)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past every possible timestamp, then walk backward.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limitPosts != nil && len(diskPosts) == *r.limitPosts {
				r.log.Debug(fmt.Sprintf("Maximum of %d posts reached", *r.limitPosts))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				var disk diskPost
				if err := json.Unmarshal(value, &disk); err != nil {
					return err
				}
				diskPosts = append(diskPosts, disk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	posts := make([]domain.Post, 0, len(diskPosts))
	for _, disk := range diskPosts {
		post, err := toPost(disk)
		if err != nil {
			return nil, nil, err
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return posts, nil, nil
	}
	return posts, lo.ToPtr(lastKey), nil
}

// AddReaction bumps a reaction counter inside one read-modify-write
// transaction and returns the new count.
func (r PostRepository) AddReaction(id uuid.UUID, kind string) (uint64, error) {
	if !domain.ValidReaction(kind) {
		return 0, errors.ErrUnknownReaction
	}

	var count uint64
	err := r.db.Update(func(txn *badger.Txn) error {
		var disk diskPost
		if err := r.readByID(txn, id, &disk); err != nil {
			return err
		}
		if disk.Reactions == nil {
			disk.Reactions = make(map[string]uint64)
		}
		disk.Reactions[kind]++
		count = disk.Reactions[kind]

		post, err := toPost(disk)
		if err != nil {
			return err
		}
		bytes, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		return txn.Set(listKey(post), bytes)
	})
	return count, err
}

func (r PostRepository) readByID(txn *badger.Txn, id uuid.UUID, out *diskPost) error {
	item, err := txn.Get(idKey(id))
	if err == badger.ErrKeyNotFound {
		return errors.ErrPostNotFound
	}
	if err != nil {
		return err
	}
	var target []byte
	if err := item.Value(func(value []byte) error {
		target = append([]byte(nil), value...)
		return nil
	}); err != nil {
		return err
	}

	item, err = txn.Get(target)
	if err == badger.ErrKeyNotFound {
		return errors.ErrPostNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, out)
	})
}

func fromPost(p domain.Post) diskPost {
	return diskPost{
		ID:        p.ID.String(),
		AuthorID:  string(p.AuthorID),
		Tag:       string(p.Tag),
		Content:   p.Content,
		Reactions: p.Reactions,
		CreatedAt: p.CreatedAt,
	}
}

func toPost(d diskPost) (domain.Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Post{}, err
	}
	return domain.Post{
		ID:        id,
		AuthorID:  domain.UserID(d.AuthorID),
		Tag:       domain.Tag(d.Tag),
		Content:   d.Content,
		Reactions: d.Reactions,
		CreatedAt: d.CreatedAt,
	}, nil
}
