package httpkit

import (
	"compress/flate"
	"net/http"
	"strings"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// Timeout cancels a request context; keep it above the longest per item budget
	Timeout time.Duration
	// SlowRequest raises the access log line to warn
	SlowRequest time.Duration
	// CORSOrigins lists allowed origins; empty allows any
	CORSOrigins []string
	// HeartbeatPath answers a bare 200 ahead of routing; the full request path, empty disables it
	HeartbeatPath string
}

// StackFromConfig reads REQUEST_TIMEOUT, SLOW_REQUEST, CORS_ORIGINS and HEARTBEAT_PATH under cfg's prefix
func StackFromConfig(cfg config.Conf) StackOptions {
	return StackOptions{
		Timeout:       cfg.MayDuration("REQUEST_TIMEOUT", 10*time.Minute),
		SlowRequest:   cfg.MayDuration("SLOW_REQUEST", 30*time.Second),
		CORSOrigins:   cfg.MayCSV("CORS_ORIGINS", nil),
		HeartbeatPath: cfg.MayString("HEARTBEAT_PATH", "/api/v1/ping"),
	}
}

// CommonStack is the middleware every API route runs behind, outermost first
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.AccessLog(o.SlowRequest),
		middleware.RecoverJSON,
		middleware.NoCache,
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins, MaxAge: 300}),
		middleware.Compress(flate.BestSpeed),
	}
	if o.HeartbeatPath != "" {
		stack = append(stack, middleware.Heartbeat(o.HeartbeatPath))
	}
	return append(stack, middleware.StripSlashes, middleware.Timeout(o.Timeout))
}

// MountAPI opens /api/{version}, applies mw and lets mount register routes on it
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
