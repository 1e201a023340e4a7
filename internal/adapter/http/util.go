package adapthttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

const (
	maxBodyBytes    = 1 << 20
	preflightMaxAge = 86400
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeServerError logs err and sends msg. The error text reaches the client
// only in development.
func (s *Server) writeServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	body := map[string]any{"error": msg}
	if s.opts.Development {
		body["details"] = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}

// preflight answers every OPTIONS request that the CORS middleware did not
// already treat as a preflight.
func (s *Server) preflight(next http.Handler) http.Handler {
	allowAll := false
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := w.Header()
		if allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "))
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Max-Age", strconv.Itoa(preflightMaxAge))
		w.WriteHeader(http.StatusOK)
	})
}
