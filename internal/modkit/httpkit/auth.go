package httpkit

import (
	"net/http"
	"strings"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	pnet "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/middleware"
)

// TokenFunc checks a bearer token and returns the caller id it belongs to
type TokenFunc func(token string) (callerID string, err error)

// Port reads the Authorization header and delegates the token check to a TokenFunc
type Port struct {
	check TokenFunc
}

// NewPortFunc builds a Port from fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{check: fn} }

// Parse returns the caller for the request's bearer token
// every failure is Unauthorized so callers cannot probe why
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := Bearer(r)
	if err != nil {
		return "", err
	}
	if p.check == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	caller, err := p.check(raw)
	if err != nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return caller, nil
}

// Bearer returns the token from "Authorization: Bearer <token>"; the scheme is case insensitive
func Bearer(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return token, nil
}

// Caller returns the authenticated caller recorded by Auth
func Caller(r *http.Request) (string, error) {
	id := pnet.CallerID(r.Context())
	if id == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	return id, nil
}

// Auth is middleware.Auth over an AuthPort
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler { return middleware.Auth(p) }

// Protected registers fn's routes behind Auth; routes registered outside fn stay open
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}
