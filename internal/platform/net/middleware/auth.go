package middleware

import (
	"net/http"

	pnet "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net"
	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
)

// AuthPort authenticates a request
type AuthPort interface {
	// Parse returns the caller id from the request or an error
	Parse(r *http.Request) (callerID string, err error)
}

// Auth rejects requests the port refuses with an error envelope and records the caller on the context
// a nil port lets every request through
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			caller, err := p.Parse(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithCaller(r.Context(), caller)))
		})
	}
}
