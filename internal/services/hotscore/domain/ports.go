// Package domain defines hot score recompute requests and the ports the
// worker and the identity service talk through
package domain

import (
	"context"
	"time"

	"pimms/internal/core/hotscore"
	perr "pimms/internal/platform/errors"
)

// Request asks for one customer's score to be recomputed
type Request struct {
	WorkspaceID string    `json:"workspace_id"`
	CustomerID  string    `json:"customer_id"`
	RequestedAt time.Time `json:"requested_at"`
	// NotBefore holds a trailing recompute back until the gate has expired
	NotBefore time.Time `json:"not_before,omitzero"`
}

// Delay is how long r must wait at now, zero when it is due
func (r Request) Delay(now time.Time) time.Duration {
	if r.NotBefore.IsZero() || !r.NotBefore.After(now) {
		return 0
	}
	return r.NotBefore.Sub(now)
}

// Validate rejects requests missing either id
func (r Request) Validate() error {
	if r.WorkspaceID == "" {
		return perr.InvalidArgf("recompute request: workspace_id is required")
	}
	if r.CustomerID == "" {
		return perr.InvalidArgf("recompute request: customer_id is required")
	}
	return nil
}

// LockKey is the gate key for a customer
func LockKey(workspaceID, customerID string) string {
	return "hotscore:lock:" + workspaceID + ":" + customerID
}

// PendingKey marks that a trailing recompute is already scheduled for a customer
func PendingKey(workspaceID, customerID string) string {
	return "hotscore:pending:" + workspaceID + ":" + customerID
}

// Gate admits at most one recompute per key per ttl
type Gate interface {
	TryAcquire(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error)
	// TryMarkPending claims the single trailing recompute slot for ttl
	TryMarkPending(ctx context.Context, workspaceID, customerID string, ttl time.Duration) (bool, error)
}

// Handler processes one dequeued request
type Handler func(ctx context.Context, r Request) error

// Publisher puts requests on the queue
type Publisher interface {
	Enqueue(ctx context.Context, r Request) error
}

// Consumer delivers requests to h until ctx ends
type Consumer interface {
	Run(ctx context.Context, h Handler) error
}

// Outcome reports what a recompute did
type Outcome struct {
	// Ran is false when another worker held the gate
	Ran    bool            `json:"ran"`
	At     time.Time       `json:"at"`
	Result hotscore.Result `json:"result"`
}

// EnqueuePort is what the identity service calls after an upsert
type EnqueuePort interface {
	EnqueueRecompute(ctx context.Context, workspaceID, customerID string) error
}

// RecomputePort runs a recompute synchronously
type RecomputePort interface {
	Recompute(ctx context.Context, workspaceID, customerID string) (Outcome, error)
}

// WorkerPort is the consume loop
type WorkerPort interface {
	Run(ctx context.Context) error
}
