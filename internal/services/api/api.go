// Package api provides the HTTP API for the application
package api

import (
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/httpkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/swaggerkit"

	metamod "github.com/ferroh-aws/transcribe-comprehend/internal/services/api/meta/module"
	resultsmod "github.com/ferroh-aws/transcribe-comprehend/internal/services/results/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Objects        modkit.ObjectStore
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Deps builds the shared module deps from the options
// a nil Store leaves PG and CH unset so modules run without the status table and the ledger
func (opt Options) Deps() modkit.Deps {
	deps := modkit.Deps{
		Cfg: opt.Config,
		Obj: opt.Objects,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		if opt.Store.PG != nil {
			deps.PG = opt.Store.PG
		}
		if opt.Store.CH != nil {
			deps.CH = opt.Store.CH
		}
	}
	return deps
}

// Modules returns the modules served by the API in mount order
func Modules(deps modkit.Deps) []modkit.Module {
	return []modkit.Module{
		metamod.New(deps),
		resultsmod.New(deps),
	}
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	mods := Modules(opt.Deps())

	stack := httpkit.CommonStack(httpkit.StackFromConfig(opt.Config.Prefix("CORE_API_")))

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		swaggerkit.Mount(r, metamod.ServiceName, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name for cross-module lookups
			modkit.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
