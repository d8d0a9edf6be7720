// Package http serves liveness, readiness and build info for the sink
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/core/results"
	"github.com/ferroh-aws/transcribe-comprehend/internal/core/version"
	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/httpkit"
)

// probeTimeout bounds every readiness ping
const probeTimeout = 2 * time.Second

// Pinger is a dependency readiness can probe
type Pinger interface {
	Ping(context.Context) error
}

// Deps are what the meta endpoints report on; nil stores are reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Obj         any
}

// Probe states
const (
	ProbeOK      = "ok"
	ProbeFail    = "fail"
	ProbeSkipped = "skipped"
	ProbeUnknown = "unknown"
)

// Health is the liveness payload
type Health struct {
	OK      bool      `json:"ok"`
	Service string    `json:"service"`
	Started time.Time `json:"started"`
}

// Probe is the outcome of pinging one dependency
type Probe struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Elapsed string `json:"elapsed,omitempty"`
}

// Readiness is ok when every probe passed, degraded when some were skipped, fail otherwise
type Readiness struct {
	Status string  `json:"status"`
	Probes []Probe `json:"checks"`
}

// Service reports identity and uptime
type Service struct {
	Name    string    `json:"name"`
	Started time.Time `json:"started"`
	Uptime  int64     `json:"uptime"`
}

// Kind describes one analysis kind the sink recognizes by key prefix
type Kind struct {
	Kind      string   `json:"kind"`
	Prefix    string   `json:"prefix"`
	Header    []string `json:"header"`
	Attribute string   `json:"attribute,omitempty"`
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/kinds", h.kinds)
}

func (h *handlers) health(*http.Request) (any, error) {
	return Health{OK: true, Service: h.deps.ServiceName, Started: h.deps.StartedAt.UTC()}, nil
}

// ready answers 503 when any configured dependency fails its ping
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	targets := []struct {
		name string
		dep  any
	}{{"obj", h.deps.Obj}, {"pg", h.deps.PG}, {"ch", h.deps.CH}}

	probes := make([]Probe, len(targets))
	var wg sync.WaitGroup
	for i, tg := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probes[i] = probe(ctx, tg.name, tg.dep)
		}()
	}
	wg.Wait()

	rd := Readiness{Status: ProbeOK, Probes: probes}
	for _, p := range probes {
		switch {
		case p.Status == ProbeFail:
			rd.Status = ProbeFail
		case p.Status != ProbeOK && rd.Status == ProbeOK:
			rd.Status = "degraded"
		}
	}
	if rd.Status == ProbeFail {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: rd}, nil
	}
	return rd, nil
}

func probe(ctx context.Context, name string, dep any) Probe {
	if dep == nil {
		return Probe{Name: name, Status: ProbeSkipped}
	}
	p, ok := dep.(Pinger)
	if !ok {
		return Probe{Name: name, Status: ProbeUnknown}
	}
	start := time.Now()
	err := p.Ping(ctx)
	out := Probe{Name: name, Status: ProbeOK, Elapsed: time.Since(start).Round(time.Millisecond).String()}
	if err != nil {
		out.Status, out.Error = ProbeFail, err.Error()
	}
	return out
}

func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

func (h *handlers) service(*http.Request) (any, error) {
	return Service{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC(),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) kinds(*http.Request) (any, error) {
	ds := results.Descriptors()
	out := make([]Kind, len(ds))
	for i, d := range ds {
		out[i] = Kind{Kind: string(d.Kind), Prefix: d.Prefix, Header: d.Header, Attribute: d.Attribute}
	}
	return out, nil
}
