package services

import (
	"context"
	"log/slog"
	"time"

	"failly/domain"
	"failly/repositories"
	"failly/runtime"

	"github.com/google/uuid"
)

type IPostService interface {
	CreatePost(ctx context.Context, authorID domain.UserID, tag domain.Tag, content string) (domain.Post, error)
	ListByTag(tag domain.Tag, cursor *string) ([]domain.Post, *string, error)
	React(postID uuid.UUID, kind string) (uint64, error)
}

// PostService stores confessions and signals the matchmaking engine that
// the author just posted under a tag. The signal is best-effort: a
// failed match attempt never fails the post itself.
type PostService struct {
	posts  repositories.IPostRepository
	engine *runtime.Engine
	log    *slog.Logger
}

func NewPostService(posts repositories.IPostRepository, engine *runtime.Engine,
	log *slog.Logger) *PostService {
	return &PostService{posts: posts, engine: engine, log: log}
}

func (s *PostService) CreatePost(ctx context.Context, authorID domain.UserID,
	tag domain.Tag, content string) (domain.Post, error) {
	post := domain.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Tag:       tag,
		Content:   content,
		Reactions: make(map[string]uint64),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.StorePost(post); err != nil {
		return domain.Post{}, err
	}

	if err := s.engine.NotifyUserPosted(ctx, authorID, tag); err != nil {
		s.log.Error("Match attempt aborted",
			"user_id", authorID, "tag", tag, "error", err)
	}
	return post, nil
}

func (s *PostService) ListByTag(tag domain.Tag, cursor *string) ([]domain.Post, *string, error) {
	return s.posts.ListByTag(tag, cursor)
}

func (s *PostService) React(postID uuid.UUID, kind string) (uint64, error) {
	return s.posts.AddReaction(postID, kind)
}
