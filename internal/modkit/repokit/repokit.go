// Package repokit holds the seams repositories are written against: queryers, binders and tx hooks
package repokit

import (
	"context"
	"fmt"
	"time"

	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/store"
)

type (
	// Queryer is the read and write surface a repo runs SQL through, pool or tx
	Queryer = store.RowQuerier

	// TxRunner runs a function inside a transaction
	TxRunner = store.TxRunner

	// Rows is a query result set
	Rows = store.Rows

	// Row is a single row result
	Row = store.Row

	// CommandTag reports what a command changed
	CommandTag = store.CommandTag
)

// Binder binds a repo to a Queryer, typically the one a tx hands out
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// BeginHook runs first inside every transaction, on the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks returns a TxRunner that runs hooks in order before fn; a hook error aborts the tx
// statements outside Tx go straight to inner
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	return hookedTx{TxRunner: inner, hooks: hooks}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// pingTimeout bounds startup checks when ctx carries no deadline
const pingTimeout = 5 * time.Second

// MustPing panics unless p answers a Ping
func MustPing(ctx context.Context, name string, p interface{ Ping(context.Context) error }) {
	if p == nil {
		panic(fmt.Sprintf("%s: nil dependency", name))
	}
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		panic(fmt.Sprintf("%s ping failed: %v", name, err))
	}
}

// MustGuard panics unless every store seam answers
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	ctx, cancel := bounded(ctx)
	defer cancel()
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}

func bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, pingTimeout)
}
