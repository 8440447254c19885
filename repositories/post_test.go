package repositories

import (
	"log/slog"
	"testing"
	"time"

	"failly/domain"
	"failly/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newPost(tag domain.Tag, content string, at time.Time) domain.Post {
	return domain.Post{
		ID:        uuid.New(),
		AuthorID:  "author",
		Tag:       tag,
		Content:   content,
		CreatedAt: at,
	}
}

func Test_Store_And_Get_Post(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	post := newPost("burnt the rice", "dinner was charcoal", time.Now().UTC())
	req.NoError(repository.StorePost(post))

	fetched, err := repository.GetPost(post.ID)
	req.NoError(err)
	req.Equal(post.ID, fetched.ID)
	req.Equal(post.Tag, fetched.Tag)
	req.Equal(post.Content, fetched.Content)

	_, err = repository.GetPost(uuid.New())
	req.ErrorIs(err, errors.ErrPostNotFound)
}

func Test_ListByTag_Returns_Newest_First(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	at := time.Now().UTC()
	first := newPost("burnt the rice", "first", at)
	second := newPost("burnt the rice", "second", at.Add(1*time.Minute))
	third := newPost("burnt the rice", "third", at.Add(2*time.Minute))
	other := newPost("missed the deadline", "unrelated", at)
	for _, post := range []domain.Post{first, second, third, other} {
		req.NoError(repository.StorePost(post))
	}

	posts, _, err := repository.ListByTag("burnt the rice", nil)
	req.NoError(err)
	req.Len(posts, 3)
	req.Equal("third", posts[0].Content)
	req.Equal("second", posts[1].Content)
	req.Equal("first", posts[2].Content)
}

func Test_ListByTag_Paginates_With_Cursor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	limit := 2
	repository := NewPostRepository(db, slog.Default(), &limit)

	at := time.Now().UTC()
	for i, content := range []string{"first", "second", "third"} {
		req.NoError(repository.StorePost(
			newPost("burnt the rice", content, at.Add(time.Duration(i)*time.Minute))))
	}

	// When the first page is fetched
	page, cursor, err := repository.ListByTag("burnt the rice", nil)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("third", page[0].Content)
	req.Equal("second", page[1].Content)
	req.NotNil(cursor)

	// Then the cursor resumes right after it
	page, _, err = repository.ListByTag("burnt the rice", cursor)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("first", page[0].Content)
}

func Test_ListByTag_Separator_In_Tag_Does_Not_Leak_Across_Tags(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	// Given two tags where one extends the other past the key separator
	at := time.Now().UTC()
	short := newPost("a", "short tag", at)
	long := newPost("a:123", "long tag", at.Add(time.Minute))
	req.NoError(repository.StorePost(short))
	req.NoError(repository.StorePost(long))

	// Then each listing stays inside its own tag
	posts, _, err := repository.ListByTag("a", nil)
	req.NoError(err)
	req.Len(posts, 1)
	req.Equal("short tag", posts[0].Content)

	posts, _, err = repository.ListByTag("a:123", nil)
	req.NoError(err)
	req.Len(posts, 1)
	req.Equal("long tag", posts[0].Content)
}

func Test_ListByTag_Empty_Tag_Yields_No_Cursor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	posts, cursor, err := repository.ListByTag("nothing here", nil)
	req.NoError(err)
	req.Empty(posts)
	req.Nil(cursor)
}

func Test_AddReaction_Counts_Per_Kind(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	post := newPost("burnt the rice", "dinner was charcoal", time.Now().UTC())
	req.NoError(repository.StorePost(post))

	count, err := repository.AddReaction(post.ID, "hug")
	req.NoError(err)
	req.Equal(uint64(1), count)

	count, err = repository.AddReaction(post.ID, "hug")
	req.NoError(err)
	req.Equal(uint64(2), count)

	count, err = repository.AddReaction(post.ID, "same")
	req.NoError(err)
	req.Equal(uint64(1), count)

	fetched, err := repository.GetPost(post.ID)
	req.NoError(err)
	req.Equal(map[string]uint64{"hug": 2, "same": 1}, fetched.Reactions)
}

func Test_AddReaction_Rejects_Unknown_Kind(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewPostRepository(db, slog.Default(), nil)

	post := newPost("burnt the rice", "dinner was charcoal", time.Now().UTC())
	req.NoError(repository.StorePost(post))

	_, err := repository.AddReaction(post.ID, "applause")
	req.ErrorIs(err, errors.ErrUnknownReaction)

	_, err = repository.AddReaction(uuid.New(), "hug")
	req.ErrorIs(err, errors.ErrPostNotFound)
}
