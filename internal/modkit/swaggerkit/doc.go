package swaggerkit

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/version"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

// Document is the subset of OpenAPI 3 the skeleton fills in
type Document struct {
	OpenAPI string                          `json:"openapi"`
	Info    Info                            `json:"info"`
	Paths   map[string]map[string]Operation `json:"paths"`
}

// Info names the API
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Operation is one method on one path
type Operation struct {
	OperationID string              `json:"operationId"`
	Tags        []string            `json:"tags,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Response describes a status code
type Response struct {
	Description string `json:"description"`
}

// Build walks routes and lists every API operation; docs and profiler routes are left out
func Build(routes chi.Routes, title string) (Document, error) {
	doc := Document{
		OpenAPI: "3.0.3",
		Info:    Info{Title: title, Version: version.Info(title).Version},
		Paths:   map[string]map[string]Operation{},
	}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.TrimSuffix(route, "/*")
		if !strings.HasPrefix(route, "/api/") || strings.HasPrefix(route, DocsPrefix) {
			return nil
		}
		ops := doc.Paths[route]
		if ops == nil {
			ops = map[string]Operation{}
			doc.Paths[route] = ops
		}
		ops[strings.ToLower(method)] = Operation{
			OperationID: operationID(method, route),
			Tags:        tags(route),
			Responses:   map[string]Response{"200": {Description: "envelope"}, "default": {Description: "error envelope"}},
		}
		return nil
	})
	return doc, err
}

// operationID turns GET /api/v1/meta/ready into getMetaReady
func operationID(method, route string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "api" || isVersion(seg) || strings.HasPrefix(seg, "{") {
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]) + seg[1:])
	}
	return b.String()
}

// tags groups an operation under its module segment
func tags(route string) []string {
	segs := strings.Split(strings.Trim(route, "/"), "/")
	for i, s := range segs {
		if isVersion(s) && i+1 < len(segs) {
			return []string{segs[i+1]}
		}
	}
	return nil
}

func isVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && strings.Trim(s[1:], "0123456789") == ""
}

// serveDoc builds the document from r's mux on each request
func serveDoc(r phttp.Router, title string) phttp.Handler {
	return func(w http.ResponseWriter, req *http.Request) {
		routes, ok := r.Mux().(chi.Routes)
		if !ok {
			phttp.WriteJSON(w, http.StatusOK, Document{OpenAPI: "3.0.3", Info: Info{Title: title}, Paths: map[string]map[string]Operation{}})
			return
		}
		doc, err := Build(routes, title)
		if err != nil {
			logger.C(req.Context()).Error().Err(err).Msg("walk routes")
		}
		w.Header().Set("Cache-Control", "no-store")
		phttp.WriteJSON(w, http.StatusOK, doc)
	}
}

// Operations lists "METHOD path" for every documented operation, sorted
func (d Document) Operations() []string {
	out := make([]string, 0, len(d.Paths))
	for p, ops := range d.Paths {
		for m := range ops {
			out = append(out, strings.ToUpper(m)+" "+p)
		}
	}
	sort.Strings(out)
	return out
}
