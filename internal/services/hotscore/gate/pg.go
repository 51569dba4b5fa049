package gate

import (
	"context"
	stderrs "errors"
	"fmt"
	"time"

	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/store"
	"pimms/internal/services/hotscore/domain"
)

// Lease is a gate backed by an expiring row in hot_score_locks
// an expired row is reclaimed by the same statement that would insert it
type Lease struct{ q repokit.Queryer }

// NewLease builds a postgres gate
func NewLease(q repokit.Queryer) *Lease {
	if q == nil {
		panic("gate.Lease requires a non nil Queryer")
	}
	return &Lease{q: q}
}

// TryAcquire returns true when this caller inserted or reclaimed the row
func (g *Lease) TryAcquire(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error) {
	return g.lease(ctx, domain.LockKey(workspaceID, customerID), ttl)
}

// TryMarkPending leases the trailing recompute row for the customer
func (g *Lease) TryMarkPending(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error) {
	return g.lease(ctx, domain.PendingKey(workspaceID, customerID), ttl)
}

func (g *Lease) lease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const sql = `
INSERT INTO hot_score_locks (lock_key, expires_at)
VALUES ($1, now() + ($2)::interval)
ON CONFLICT (lock_key) DO UPDATE
   SET expires_at = EXCLUDED.expires_at
 WHERE hot_score_locks.expires_at <= now()
RETURNING true`
	ok, err := store.One(ctx, g.q, func(r store.Row) (bool, error) {
		var b bool
		err := r.Scan(&b)
		return b, err
	}, sql, key, toInterval(clamp(ttl)))
	if err != nil {
		if stderrs.Is(err, perr.ErrNotFound) {
			return false, nil
		}
		return false, perr.FromPostgres(err, "recompute lease failed")
	}
	return ok, nil
}

func toInterval(d time.Duration) string { return fmt.Sprintf("%d seconds", int64(d/time.Second)) }
