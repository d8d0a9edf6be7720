// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyCallerID ctxKey = "caller_id"

// WithRequest annotates context with the request id chi middleware reads back
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithCaller annotates context with the authenticated caller id
func WithCaller(ctx context.Context, callerID string) context.Context {
	if callerID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyCallerID, callerID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// CallerID returns the caller id on the context if present
func CallerID(ctx context.Context) string {
	if v, ok := ctx.Value(keyCallerID).(string); ok {
		return v
	}
	return ""
}
