// Package http is the transport seam: a chi backed Router, the server and the JSON envelope
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
	pnet "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net"
)

// Envelope wraps every JSON body the API writes
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Response is what return style handlers hand back
// Body may be an error, in which case Status is derived from its code
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// OK returns a 200 response carrying data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error returns a response whose status and envelope come from err
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a Response returning function to a platform Handler
func Handle(h func(r *stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).Write(w, r) }
}

// Write renders resp as an envelope
func (resp Response) Write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	env := Envelope{StatusCode: resp.Status, RequestID: pnet.RequestID(r.Context())}
	if err, ok := resp.Body.(error); ok && err != nil {
		status, wire := perr.HTTP(err)
		env.StatusCode, env.Code, env.Error, env.Field = status, wire.Code, wire.Message, wire.Field
		if status >= stdhttp.StatusInternalServerError {
			logger.C(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
		}
	} else {
		env.Data = resp.Body
	}
	if env.StatusCode == 0 {
		env.StatusCode = stdhttp.StatusOK
	}
	if env.StatusCode == stdhttp.StatusNoContent {
		w.WriteHeader(stdhttp.StatusNoContent)
		return
	}
	env.Status = stdhttp.StatusText(env.StatusCode)
	WriteJSON(w, env.StatusCode, env)
}

// RespondError writes err as an error envelope
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	Error(err).Write(w, r)
}

// WriteJSON writes v as application/json with status
func WriteJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
