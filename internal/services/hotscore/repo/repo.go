// Package repo reads customer event history and persists hot scores
package repo

import (
	"context"
	"encoding/json"
	"time"

	"pimms/internal/core/hotscore"
	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/store"
)

// Repo is the persistence surface for recomputes
type Repo interface {
	// Subject returns the customer's anonymous id, perr.ErrNotFound when the customer is gone
	Subject(ctx context.Context, workspaceID, customerID string) (string, error)
	// Events returns stored events since a cutoff, newest first
	Events(ctx context.Context, workspaceID, customerID string, since time.Time, limit int) ([]EventRow, error)
	// Save replaces the stored result in one statement
	Save(ctx context.Context, workspaceID, customerID string, r hotscore.Result, at time.Time) error
}

// EventRow is one stored customer event
type EventRow struct {
	Kind     hotscore.Kind
	At       time.Time
	Amount   int64
	Currency string
	ClickID  string
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

func (r *queries) Subject(ctx context.Context, workspaceID, customerID string) (string, error) {
	const sql = `SELECT coalesce(anonymous_id, '') FROM customers WHERE workspace_id = $1 AND id = $2`
	return store.One(ctx, r.q, func(row store.Row) (string, error) {
		var s string
		err := row.Scan(&s)
		return s, err
	}, sql, workspaceID, customerID)
}

func (r *queries) Events(ctx context.Context, workspaceID, customerID string, since time.Time, limit int) ([]EventRow, error) {
	const sql = `
select kind, occurred_at, amount, currency, coalesce(click_id, '')
from customer_events
where workspace_id = $1 and customer_id = $2 and occurred_at >= $3
order by occurred_at desc
limit $4
`
	return store.Many(ctx, r.q, func(row store.Row) (EventRow, error) {
		var e EventRow
		var kind string
		if err := row.Scan(&kind, &e.At, &e.Amount, &e.Currency, &e.ClickID); err != nil {
			return e, err
		}
		e.Kind = hotscore.Kind(kind)
		e.At = e.At.UTC()
		return e, nil
	}, sql, workspaceID, customerID, since.UTC(), limit)
}

func (r *queries) Save(ctx context.Context, workspaceID, customerID string, res hotscore.Result, at time.Time) error {
	reasons, err := json.Marshal(nonNil(res.Reasons))
	if err != nil {
		return err
	}
	windows := res.HotWindows
	if windows == nil {
		windows = []hotscore.Window{}
	}
	wjson, err := json.Marshal(windows)
	if err != nil {
		return err
	}
	const sql = `
update customers
   set hot_score = $3,
       hot_tier = $4,
       hot_reasons = $5::jsonb,
       hot_windows = $6::jsonb,
       last_hot_score_at = $7
 where workspace_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql, workspaceID, customerID, res.Score, int(res.Tier), string(reasons), string(wjson), at.UTC())
	if err != nil {
		return perr.FromPostgres(err, "save hot score")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("customer %s not found", customerID)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
