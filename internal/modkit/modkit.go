// Package modkit wires API modules: shared deps, a common module base and a port registry
package modkit

import (
	"net/http"

	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
	str "github.com/ferroh-aws/transcribe-comprehend/internal/platform/strings"
)

// Module is what the API mounts
type Module interface {
	// MountRoutes attaches the module under its prefix
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for other triggers, or nil
	Ports() any
	Name() string
}

// Option adjusts a module Base
type Option func(*Base)

// WithName overrides the module name used for logs and the port registry
func WithName(name string) Option { return func(b *Base) { b.name = name } }

// WithPrefix overrides the route prefix
func WithPrefix(prefix string) Option { return func(b *Base) { b.prefix = prefix } }

// WithMiddlewares appends middleware applied to the module's routes only
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Base) { b.mws = append(b.mws, mw...) }
}

// WithRoutes registers extra routes after the module's own
func WithRoutes(fn func(phttp.Router)) Option {
	return func(b *Base) { b.extra = append(b.extra, fn) }
}

// Base carries what every module shares; embed it and call Mount from MountRoutes
type Base struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	extra  []func(phttp.Router)
}

// NewBase applies opts over the module's defaults
func NewBase(name, prefix string, opts ...Option) Base {
	b := Base{name: name, prefix: prefix}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Name returns the module name; panics when it was blanked
func (b Base) Name() string { return str.MustString(b.name, "module name") }

// Prefix returns the normalized route prefix
func (b Base) Prefix() string { return str.MustPrefix(b.prefix) }

// Middlewares returns the module scoped middleware
func (b Base) Middlewares() []func(http.Handler) http.Handler { return b.mws }

// Mount opens a route group at Prefix, applies the module middleware and registers routes
func (b Base) Mount(r phttp.Router, register func(phttp.Router)) {
	r.Route(b.Prefix(), func(rr phttp.Router) {
		if len(b.mws) > 0 {
			rr.Use(b.mws...)
		}
		if register != nil {
			register(rr)
		}
		for _, fn := range b.extra {
			fn(rr)
		}
	})
}
