package httpapi

import (
	"net/http"
	"strings"

	"failly/domain"
)

// userHandler is an authenticated handler receiving the resolved user.
type userHandler func(w http.ResponseWriter, r *http.Request, userID domain.UserID)

// requireUser validates the bearer token and passes the owning user
// through to the handler.
func (s *Server) requireUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.tokens.Validate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r, userID)
	})
}
