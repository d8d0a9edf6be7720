package module

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	modkit "github.com/ferroh-aws/transcribe-comprehend/internal/modkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/config"
	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/testkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"

	"github.com/go-chi/chi/v5"
)

const jobUUID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type objectsFake struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (o *objectsFake) Download(_ context.Context, bucket, key string, w io.Writer) (int64, error) {
	o.mu.Lock()
	b, ok := o.objs[bucket+"/"+key]
	o.mu.Unlock()
	if !ok {
		return 0, perr.NotFoundf("no such key %s", key)
	}
	n, err := w.Write(b)
	return int64(n), err
}

func (o *objectsFake) Put(_ context.Context, bucket, key string, body []byte, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objs[bucket+"/"+key] = body
	return nil
}

func sentimentArchive(t *testing.T) []byte {
	return testkit.TarGz(t, "output", `{"File":"`+jobUUID+`.mp3","Sentiment":"NEUTRAL",`+
		`"SentimentScore":{"Mixed":0,"Negative":0.1,"Neutral":0.8,"Positive":0.1}}`)
}

func event(keys ...string) string {
	recs := make([]string, 0, len(keys))
	for _, k := range keys {
		recs = append(recs, `{"s3":{"bucket":{"name":"comprehend-output"},"object":{"key":"`+k+`"}}}`)
	}
	return `{"Records":[` + strings.Join(recs, ",") + `]}`
}

func mount(t *testing.T, o Options, objs *objectsFake) http.Handler {
	t.Helper()
	m := NewWithOptions(modkit.Deps{Cfg: config.New(), Obj: objs}, o)
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/api/v1", func(v1 phttp.Router) { m.MountRoutes(v1) })
	return r.Mux()
}

func post(h http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New().Prefix("TEST_UNSET_"))
	if o.StatusTable != "jobs" || o.LedgerTable != "ingest_outcomes" || o.OutputPrefix != "analytics" {
		t.Fatalf("defaults = %+v", o)
	}
	if o.Strict || o.WebhookToken != "" || o.OutputBucket != "" {
		t.Fatalf("defaults = %+v", o)
	}
	if o.Timeouts.Item != 5*time.Minute || o.MaxArchiveBytes <= 0 {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("CORE_RESULTS_STATUS_TABLE", "ops.transcriptions")
	t.Setenv("CORE_RESULTS_OUTPUT_BUCKET", "reports")
	t.Setenv("CORE_RESULTS_STRICT", "true")
	t.Setenv("CORE_RESULTS_FETCH_TIMEOUT", "7s")
	o := FromConfig(config.New())
	if o.StatusTable != "ops.transcriptions" || o.OutputBucket != "reports" || !o.Strict || o.Timeouts.Fetch != 7*time.Second {
		t.Fatalf("options = %+v", o)
	}

	t.Setenv("CORE_RESULTS_STATUS_TABLE", "jobs; drop table jobs")
	testkit.MustPanic(t, func() { _ = FromConfig(config.New()) })
}

func TestNew_RequiresObjectStore(t *testing.T) {
	testkit.MustPanic(t, func() { _ = New(modkit.Deps{Cfg: config.New()}) })
}

func TestModule_Surface(t *testing.T) {
	m := NewWithOptions(modkit.Deps{Obj: &objectsFake{objs: map[string][]byte{}}}, Options{})
	if m.Name() != "results" || m.Prefix() != "/results" {
		t.Fatalf("name/prefix = %s %s", m.Name(), m.Prefix())
	}
	p, ok := m.Ports().(Ports)
	if !ok || p.Handler == nil || m.Handler() == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}
}

func TestEvents_EndToEnd(t *testing.T) {
	objs := &objectsFake{objs: map[string][]byte{
		"comprehend-output/sentiment/x/output/output.tar.gz": sentimentArchive(t),
	}}
	h := mount(t, Options{}, objs)

	rec := post(h, "/api/v1/results/events", event("sentiment/x/output/output.tar.gz", "uploads/raw.wav"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data domain.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Succeeded != 1 || env.Data.Skipped != 1 {
		t.Fatalf("report = %+v", env.Data)
	}
	csv, ok := objs.objs["comprehend-output/analytics/sentiment/"+jobUUID+".csv"]
	if !ok {
		t.Fatalf("csv not written: %v", objs.objs)
	}
	testkit.MustContain(t, string(csv), jobUUID+",NEUTRAL,0,0.1,0.8,0.1")
}

func TestEvents_StrictWithoutDatabase(t *testing.T) {
	objs := &objectsFake{objs: map[string][]byte{
		"comprehend-output/keyPhrases/j/o.tar.gz": testkit.TarGz(t, "output", `{"KeyPhrases":[]}`),
	}}

	rec := post(mount(t, Options{}, objs), "/api/v1/results/events", event("keyPhrases/j/o.tar.gz"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lenient status = %d", rec.Code)
	}
	rec = post(mount(t, Options{Strict: true}, objs), "/api/v1/results/events", event("keyPhrases/j/o.tar.gz"), "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("strict status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestEvents_WebhookToken(t *testing.T) {
	objs := &objectsFake{objs: map[string][]byte{}}
	h := mount(t, Options{WebhookToken: "s3cret"}, objs)

	if rec := post(h, "/api/v1/results/events", event("other/k"), ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}
	if rec := post(h, "/api/v1/results/events", event("other/k"), "nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rec.Code)
	}
	if rec := post(h, "/api/v1/results/events", event("other/k"), "s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("good token: status = %d body = %s", rec.Code, rec.Body.String())
	}
}
