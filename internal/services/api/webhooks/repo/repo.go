// Package repo provides postgres access for the webhook error log
package repo

import (
	"context"

	"pimms/internal/core/normalize"
	"pimms/internal/modkit/repokit"
	"pimms/internal/platform/store"
	"pimms/internal/services/api/webhooks/domain"
)

// MaxPayload bounds the stored body copy
const MaxPayload = 64 << 10

// Repo is the persistence surface for webhook errors
type Repo interface {
	Insert(ctx context.Context, e domain.WebhookError) error
	// Recent lists the newest errors for a workspace, security audits included
	Recent(ctx context.Context, workspaceID string, limit int) ([]domain.WebhookError, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Insert(ctx context.Context, e domain.WebhookError) error {
	const sql = `
insert into webhook_errors (
    id, workspace_id, app, has_pimms_id, pimms_id, failed_reason, reason_code, security, payload, received_at
) values ($1, $2, $3, $4, nullif($5, ''), $6, $7, $8, $9, $10)
`
	// a cut multibyte rune is dropped by Sanitize
	body := e.Payload
	if len(body) > MaxPayload {
		body = body[:MaxPayload]
	}
	_, err := r.q.Exec(ctx, sql,
		e.ID, e.WorkspaceID, e.App, e.HasPimmsID, e.PimmsID, e.FailedReason, e.ReasonCode, e.Security,
		normalize.Sanitize(string(body)), e.ReceivedAt.UTC(),
	)
	return err
}

func (r *queries) Recent(ctx context.Context, workspaceID string, limit int) ([]domain.WebhookError, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const sql = `
select id, workspace_id, app, has_pimms_id, coalesce(pimms_id, ''), failed_reason, reason_code, security, received_at
  from webhook_errors
 where workspace_id = $1
 order by received_at desc
 limit $2
`
	return store.Many(ctx, r.q, func(row store.Row) (domain.WebhookError, error) {
		var e domain.WebhookError
		err := row.Scan(&e.ID, &e.WorkspaceID, &e.App, &e.HasPimmsID, &e.PimmsID, &e.FailedReason, &e.ReasonCode, &e.Security, &e.ReceivedAt)
		return e, err
	}, sql, workspaceID, limit)
}
