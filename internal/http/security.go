package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// OfficerCookie carries the officer token for browser sessions.
const OfficerCookie = "classroom_officer"

type Role string

const (
	RoleViewer  Role = "viewer"
	RoleOfficer Role = "officer"
)

// RoleFromRequest returns RoleOfficer when the request presents the officer
// token as a bearer token or in the officer cookie. An empty token makes
// everyone a viewer.
func RoleFromRequest(r *http.Request, token string) Role {
	if token == "" {
		return RoleViewer
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if tokensEqual(strings.TrimPrefix(auth, "Bearer "), token) {
			return RoleOfficer
		}
	}
	if c, err := r.Cookie(OfficerCookie); err == nil && tokensEqual(c.Value, token) {
		return RoleOfficer
	}
	return RoleViewer
}

func tokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (s *Server) requireOfficer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromRequest(r, s.officerToken) != RoleOfficer {
			writeError(w, r, http.StatusForbidden, "officer role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]Role{"role": RoleFromRequest(r, s.officerToken)})
}
