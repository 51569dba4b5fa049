// Package gate admits one hot score recompute per customer per ttl
//
// Redis SET NX EX is the primary implementation; a postgres lease row is used
// when redis is not configured. Both are a single atomic set-if-absent with
// expiry, so there is no read-then-write window.
package gate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	perr "pimms/internal/platform/errors"
	"pimms/internal/services/hotscore/domain"
)

// MinTTL is the smallest expiry either backend is asked for
const MinTTL = time.Second

// Redis is a gate backed by SET key 1 NX EX ttl
type Redis struct{ rdb redis.UniversalClient }

// NewRedis builds a redis gate
func NewRedis(rdb redis.UniversalClient) *Redis {
	if rdb == nil {
		panic("gate.Redis requires a non nil redis client")
	}
	return &Redis{rdb: rdb}
}

// TryAcquire returns true when this caller set the key
func (g *Redis) TryAcquire(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error) {
	return g.setNX(ctx, domain.LockKey(workspaceID, customerID), ttl)
}

// TryMarkPending returns true when this caller owns the trailing recompute
func (g *Redis) TryMarkPending(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error) {
	return g.setNX(ctx, domain.PendingKey(workspaceID, customerID), ttl)
}

func (g *Redis) setNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, key, "1", clamp(ttl)).Result()
	if err != nil {
		return false, perr.Wrap(err, perr.ErrorCodeUnavailable, "recompute gate unavailable")
	}
	return ok, nil
}

// Hold is how long either backend keeps a key asked for ttl
func Hold(ttl time.Duration) time.Duration { return clamp(ttl) }

// clamp rounds ttl up to whole seconds so redis uses EX
func clamp(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return (ttl + time.Second - 1).Truncate(time.Second)
}
