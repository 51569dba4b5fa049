package queue

import (
	"context"
	"sync"
	"time"

	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/logger"
	"pimms/internal/services/hotscore/domain"
)

// Local is a bounded in-process queue
// requests are lost on restart, which the next trigger repairs
type Local struct {
	ch      chan domain.Request
	workers int
}

// NewLocal builds a queue holding up to size requests, drained by workers goroutines
func NewLocal(size, workers int) *Local {
	return &Local{ch: make(chan domain.Request, max(1, size)), workers: max(1, workers)}
}

// Enqueue adds r without blocking, a full queue is TooManyRequests
// a request that is not due yet is added by a timer once it is
func (q *Local) Enqueue(ctx context.Context, r domain.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if d := r.Delay(clock()); d > 0 {
		time.AfterFunc(d, func() {
			select {
			case q.ch <- r:
			default:
				logger.Named("hotscore-local-queue").Warn().
					Str("workspace_id", r.WorkspaceID).
					Str("customer_id", r.CustomerID).
					Msg("queue full, trailing recompute dropped")
			}
		})
		return nil
	}
	select {
	case q.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return perr.New(perr.ErrorCodeTooManyRequests, "recompute queue full")
	}
}

// Len is the number of waiting requests
func (q *Local) Len() int { return len(q.ch) }

// Run drains the queue until ctx ends and waits for in-flight handlers
func (q *Local) Run(ctx context.Context, h domain.Handler) error {
	log := logger.Named("hotscore-local-queue")
	sem := make(chan struct{}, q.workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-q.ch:
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() { <-sem; wg.Done() }()
				if err := h(ctx, r); err != nil {
					log.Warn().Err(err).
						Str("workspace_id", r.WorkspaceID).
						Str("customer_id", r.CustomerID).
						Msg("recompute failed")
				}
			}()
		}
	}
}
