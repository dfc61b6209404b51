package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionHeader carries the streaming session id in both directions.
const SessionHeader = "X-Session-ID"

// maxSessionIDLen bounds client supplied session ids.
const maxSessionIDLen = 128

// WithSession puts the session id sent by the client into the request context.
// Streaming requests without one get a fresh id. The id in use is echoed back
// in the response header.
func WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if len(id) > maxSessionIDLen {
			id = ""
		}
		if id == "" && r.URL.Query().Get("mode") == "stream" {
			id = uuid.NewString()
		}
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set(SessionHeader, id)
		next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), id)))
	})
}

// GetSessionFromContext retrieves the session id from the request context.
func GetSessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}

// SetSessionInContext adds a session id to the context.
// This is primarily for testing - use WithSession middleware in production.
func SetSessionInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}
