// Package guardrails holds time budgets for result ingestion
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single notification
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Item is the overall budget for one notification, fetch through table update
	Item time.Duration

	// Fetch caps the archive download and unpack step
	Fetch time.Duration

	// Write caps each of the CSV put and the status table update
	Write time.Duration
}

// ForItem returns a context limited by the item budget without extending any parent deadline
func ForItem(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Item)
}

// ForFetch returns a sub context for the fetch phase bounded by Fetch and any remaining parent budget
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForWrite returns a sub context for one write bounded by Write and any remaining parent budget
func ForWrite(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Write)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout picks the tighter of d and the parent remainder, never extending the parent
// d <= 0 yields a plain cancelable child
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
