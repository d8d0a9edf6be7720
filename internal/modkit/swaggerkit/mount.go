// Package swaggerkit serves Swagger UI over an OpenAPI document built from the mounted routes
package swaggerkit

import (
	"net/http"

	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocsPrefix is where the UI and doc.json live
const DocsPrefix = "/api/docs"

// Mount serves the UI and doc.json under DocsPrefix when enabled
// the document is built per request so routes mounted after Mount are listed
func Mount(r phttp.Router, title string, enabled bool) {
	if !enabled {
		return
	}
	r.Get(DocsPrefix, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, DocsPrefix+"/", http.StatusPermanentRedirect)
	})
	r.Get(DocsPrefix+"/doc.json", serveDoc(r, title))
	r.Handle(DocsPrefix+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL(DocsPrefix+"/doc.json"),
	))
}
