// Package httpkit is what modules use to register handlers without importing the platform http packages
package httpkit

import (
	"net/http"

	phttp "github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/net/http/bind"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Response lets a handler pick its own status
	Response = phttp.Response

	// Envelope is the JSON body every endpoint answers with
	Envelope = phttp.Envelope

	// JSONOptions tunes body binding
	JSONOptions = bind.JSONOptions
)

// reply turns a handler result into a Response; a returned Response is passed through
func reply(out any, err error) Response {
	if err != nil {
		return phttp.Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return phttp.OK(out)
}

// Call adapts a body-less handler to the envelope writer
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response { return reply(fn(r)) })
}

// Get registers a body-less GET handler
func Get(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, Call(fn))
}

// PostJSON registers a POST handler that receives the bound and validated body
func PostJSON[T any](r Router, path string, opts JSONOptions, fn func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.Handle(func(req *http.Request) Response {
		in, err := bind.ParseJSON[T](req, opts)
		if err != nil {
			return phttp.Error(err)
		}
		return reply(fn(req, in))
	}))
}
