// Package module mounts the meta endpoints
package module

import (
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/httpkit"

	metahttp "github.com/ferroh-aws/transcribe-comprehend/internal/services/api/meta/http"
)

// ServiceName is reported by the meta endpoints
const ServiceName = "comprehend-sink"

// Module serves health, readiness and build info under /meta
type Module struct {
	modkit.Base
	deps metahttp.Deps
}

// New builds the meta module; every store in deps is optional
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return &Module{
		Base: modkit.NewBase("meta", "/meta", opts...),
		deps: metahttp.Deps{
			ServiceName: ServiceName,
			StartedAt:   time.Now(),
			PG:          deps.PG,
			CH:          deps.CH,
			Obj:         deps.Obj,
		},
	}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Ports implements modkit.Module; meta exposes none
func (m *Module) Ports() any { return nil }
