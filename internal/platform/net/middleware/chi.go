// Package middleware holds the HTTP middleware the API stacks in front of every module
package middleware

import (
	"net/http"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	pnet "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID accepts or mints a request id, echoes it and puts it on the context for envelopes and logs
func RequestID(next http.Handler) http.Handler {
	tag := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := pnet.RequestID(r.Context())
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequest(r.Context(), id)))
	})
	return chimw.RequestID(tag)
}

// RealIP sets RemoteAddr from X-Forwarded-For or X-Real-IP
func RealIP(next http.Handler) http.Handler { return chimw.RealIP(next) }

// NoCache marks every response uncacheable
func NoCache(next http.Handler) http.Handler { return chimw.NoCache(next) }

// StripSlashes routes /x/ as /x
func StripSlashes(next http.Handler) http.Handler { return chimw.StripSlashes(next) }

// Heartbeat answers GET path with a bare 200 ahead of routing
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// Timeout cancels the request context after d; zero disables it
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.Timeout(d)
}

// Compress gzips JSON responses at level
func Compress(level int) func(http.Handler) http.Handler {
	return chimw.Compress(level, "application/json")
}

// CORSOptions narrows go-chi/cors to what the API needs
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows the API's methods and headers from AllowedOrigins; none means any origin
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	origins := o.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         o.MaxAge,
	})
}
