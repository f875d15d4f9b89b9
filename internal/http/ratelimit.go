package http

import (
	"net"
	"net/http"

	"classroom/internal/log"
)

// clientIP keys the rate limiter. RealIP has already folded forwarding
// headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
