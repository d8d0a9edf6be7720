// Package http provides the webhook transport for result ingestion
package http

import (
	stdhttp "net/http"

	"github.com/ferroh-aws/transcribe-comprehend/internal/modkit/httpkit"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http/bind"
	"github.com/ferroh-aws/transcribe-comprehend/internal/services/results/domain"
)

// maxBody caps an event notification body
const maxBody = 4 << 20

// Options tunes the transport
type Options struct {
	// Strict answers 502 when any notification failed so the sender redelivers
	Strict bool
}

// Register mounts the ingestion endpoints on the given router
func Register(r httpkit.Router, p domain.HandlerPort, o Options) {
	h := &handlers{port: p, strict: o.Strict}
	httpkit.PostJSON(r, "/events", httpkit.JSONOptions{MaxBytes: maxBody}, h.events)
	httpkit.PostJSON(r, "/replay", httpkit.JSONOptions{MaxBytes: maxBody, DisallowUnknown: true}, h.replay)
}

type handlers struct {
	port   domain.HandlerPort
	strict bool
}

// swagger:route POST /results/events Results resultsEvents
// @Summary Ingest analysis results from an object-created notification
// @Description Each record names one output archive. Failures are reported per record; the batch itself succeeds unless strict mode is on
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body domain.EventInput true "Event notification"
// @Success 200 {object} domain.Report "ok"
// @Failure 400 {object} httpkit.Envelope "bad payload"
// @Failure 502 {object} domain.Report "strict mode and at least one record failed"
// @Router /results/events [post]
func (h *handlers) events(r *stdhttp.Request, in domain.EventInput) (any, error) {
	batch, err := in.Notifications()
	if err != nil {
		return nil, err
	}
	if err := bind.Validate(r.Context(), domain.ReplayInput{Notifications: batch}); err != nil {
		return nil, err
	}
	return h.respond(h.port.Handle(r.Context(), batch)), nil
}

// swagger:route POST /results/replay Results resultsReplay
// @Summary Re-ingest a list of output archives
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body domain.ReplayInput true "Notifications"
// @Success 200 {object} domain.Report "ok"
// @Failure 400 {object} httpkit.Envelope "bad payload"
// @Failure 502 {object} domain.Report "strict mode and at least one notification failed"
// @Router /results/replay [post]
func (h *handlers) replay(r *stdhttp.Request, in domain.ReplayInput) (any, error) {
	evt := logger.C(r.Context()).Info().Int("notifications", len(in.Notifications))
	if caller, err := httpkit.Caller(r); err == nil {
		evt = evt.Str("caller", caller)
	}
	evt.Msg("replay requested")
	return h.respond(h.port.Handle(r.Context(), in.Notifications)), nil
}

func (h *handlers) respond(rep domain.Report) any {
	if h.strict && rep.HasFailures() {
		return httpkit.Response{Status: stdhttp.StatusBadGateway, Body: rep}
	}
	return rep
}
