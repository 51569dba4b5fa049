// Package guardrails holds deadline helpers for webhook ingestion
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget for one delivery
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Ingest bounds verify, attribution and upsert together
	Ingest time.Duration

	// Store caps each identity store call inside the ingest budget
	Store time.Duration

	// Audit caps the webhook error write
	Audit time.Duration
}

// WithIngest returns a context limited by the ingest budget without extending any parent deadline
func WithIngest(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Ingest)
}

// ForStore returns a sub context bounded by Store and any remaining parent budget
func ForStore(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Store)
}

// ForAudit returns a sub context for the error log write
// the write outlives a caller that already gave up
func ForAudit(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(context.WithoutCancel(parent), t.Audit)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder
// When d is zero it returns a simple cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
