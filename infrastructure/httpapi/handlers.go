package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"failly/domain"
	"failly/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

type signupRequest struct {
	DisplayName string `json:"displayName" validate:"required,min=2,max=32"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type authResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Token       string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}

	profile, token, err := s.auth.Signup(req.DisplayName, req.Password)
	if err == errors.ErrDisplayNameTaken {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.log.Error("Signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "signup failed")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		UserID:      string(profile.UserID),
		DisplayName: profile.DisplayName,
		Token:       token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	profile, token, err := s.auth.Login(req.DisplayName, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredential.Error())
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		UserID:      string(profile.UserID),
		DisplayName: profile.DisplayName,
		Token:       token,
	})
}

type createPostRequest struct {
	Tag     string `json:"tag" validate:"required,max=64"`
	Content string `json:"content" validate:"required,max=500"`
}

type postResponse struct {
	ID        string            `json:"id"`
	AuthorID  string            `json:"authorId"`
	Tag       string            `json:"tag"`
	Content   string            `json:"content"`
	Reactions map[string]uint64 `json:"reactions"`
	CreatedAt string            `json:"createdAt"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, userID domain.UserID) {
	var req createPostRequest
	if !s.decode(w, r, &req) {
		return
	}

	post, err := s.posts.CreatePost(r.Context(), userID, domain.Tag(req.Tag), req.Content)
	if err != nil {
		s.log.Error("Storing post failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store post")
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "tag query parameter is required")
		return
	}
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	posts, next, err := s.posts.ListByTag(domain.Tag(tag), cursor)
	if err != nil {
		s.log.Error("Listing posts failed", "tag", tag, "error", err)
		writeError(w, http.StatusInternalServerError, "could not list posts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":  lo.Map(posts, func(p domain.Post, _ int) postResponse { return toPostResponse(p) }),
		"cursor": next,
	})
}

type reactionRequest struct {
	Kind string `json:"kind" validate:"required"`
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	var req reactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	count, err := s.posts.React(postID, req.Kind)
	switch err {
	case nil:
	case errors.ErrPostNotFound:
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.ErrUnknownReaction:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		s.log.Error("Reaction failed", "post_id", postID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not react")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": req.Kind, "count": count})
}

// decode unmarshals and validates a JSON body, answering 400 itself when
// the payload is unusable.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func toPostResponse(p domain.Post) postResponse {
	return postResponse{
		ID:        p.ID.String(),
		AuthorID:  string(p.AuthorID),
		Tag:       string(p.Tag),
		Content:   p.Content,
		Reactions: p.Reactions,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
