// Package repo provides postgres access for customers and their events
//
// Every write is one statement so concurrent deliveries for the same
// identity serialize on the row or on the partial unique indexes.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"pimms/internal/core/hotscore"
	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/store"
	"pimms/internal/services/api/customers/domain"
)

// Repo is the persistence surface for customers
type Repo interface {
	// UpdateByExternal patches the record holding p.ExternalID, ok=false when none
	UpdateByExternal(ctx context.Context, workspaceID string, p Patch) (domain.Customer, bool, error)
	// Promote sets p.ExternalID on the anonymous record for p.AnonymousID when it has none
	Promote(ctx context.Context, workspaceID string, p Patch) (domain.Customer, bool, error)
	// Insert creates the record or merges into the one holding the same identity
	Insert(ctx context.Context, workspaceID, id, placeholderAvatar string, p Patch) (domain.Customer, bool, error)
	FindByExternal(ctx context.Context, workspaceID, externalID string) (domain.Customer, error)
	FindByAnonymous(ctx context.Context, workspaceID, anonymousID string) (domain.Customer, error)
	// UpdateByID patches a fetched record, external id is only set when empty
	UpdateByID(ctx context.Context, workspaceID, id string, p Patch) (domain.Customer, error)
	// AppendEvent inserts e unless its dedupe key exists, true when inserted
	AppendEvent(ctx context.Context, e EventRow) (bool, error)
	Get(ctx context.Context, workspaceID, id string) (domain.Customer, error)
}

// Patch carries identity, contact and touch values, blanks leave columns untouched
type Patch struct {
	ExternalID  string
	AnonymousID string
	Name        string
	Email       string
	Avatar      string
	LinkID      string
	ClickID     string
}

// EventRow is one customer_events insert
type EventRow struct {
	ID          string
	CustomerID  string
	WorkspaceID string
	Kind        string
	Name        string
	Amount      int64
	Currency    string
	LinkID      string
	ClickID     string
	OccurredAt  time.Time
	DedupeKey   string
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

const cols = `
id, workspace_id, coalesce(external_id, ''), coalesce(anonymous_id, ''),
coalesce(name, ''), coalesce(email, ''), coalesce(avatar, ''),
coalesce(link_id, ''), coalesce(click_id, ''), coalesce(last_link_id, ''), coalesce(last_click_id, ''),
hot_score, hot_tier, hot_reasons, hot_windows, last_hot_score_at, created_at, updated_at`

func scanCustomer(r store.Row) (domain.Customer, error) {
	var (
		c       domain.Customer
		tier    int16
		reasons []byte
		windows []byte
	)
	err := r.Scan(
		&c.ID, &c.WorkspaceID, &c.ExternalID, &c.AnonymousID,
		&c.Name, &c.Email, &c.Avatar,
		&c.LinkID, &c.ClickID, &c.LastLinkID, &c.LastClickID,
		&c.HotScore, &tier, &reasons, &windows, &c.LastHotScoreAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}
	c.HotTier = hotscoreTier(tier)
	if len(reasons) > 0 {
		if err := json.Unmarshal(reasons, &c.HotReasons); err != nil {
			return c, err
		}
	}
	if len(windows) > 0 {
		if err := json.Unmarshal(windows, &c.HotWindows); err != nil {
			return c, err
		}
	}
	return c, nil
}

// one runs a RETURNING statement, ok=false when no row came back
func (r *queries) one(ctx context.Context, sql string, args ...any) (domain.Customer, bool, error) {
	c, err := store.One(ctx, r.q, scanCustomer, sql, args...)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Customer{}, false, nil
		}
		return domain.Customer{}, false, err
	}
	return c, true, nil
}

func (r *queries) UpdateByExternal(ctx context.Context, workspaceID string, p Patch) (domain.Customer, bool, error) {
	const sql = `
update customers
   set name          = coalesce(nullif($3, ''), name),
       email         = coalesce(nullif($4, ''), email),
       avatar        = coalesce(nullif($5, ''), avatar),
       link_id       = coalesce(link_id, nullif($6, '')),
       click_id      = coalesce(click_id, nullif($7, '')),
       last_link_id  = coalesce(nullif($6, ''), last_link_id),
       last_click_id = coalesce(nullif($7, ''), last_click_id),
       updated_at    = now()
 where workspace_id = $1 and external_id = $2
returning` + cols
	return r.one(ctx, sql, workspaceID, p.ExternalID, p.Name, p.Email, p.Avatar, p.LinkID, p.ClickID)
}

func (r *queries) Promote(ctx context.Context, workspaceID string, p Patch) (domain.Customer, bool, error) {
	const sql = `
update customers
   set external_id   = $3,
       name          = coalesce(nullif($4, ''), name),
       email         = coalesce(nullif($5, ''), email),
       avatar        = coalesce(nullif($6, ''), avatar),
       link_id       = coalesce(link_id, nullif($7, '')),
       click_id      = coalesce(click_id, nullif($8, '')),
       last_link_id  = coalesce(nullif($7, ''), last_link_id),
       last_click_id = coalesce(nullif($8, ''), last_click_id),
       updated_at    = now()
 where workspace_id = $1 and anonymous_id = $2 and external_id is null
returning` + cols
	return r.one(ctx, sql, workspaceID, p.AnonymousID, p.ExternalID, p.Name, p.Email, p.Avatar, p.LinkID, p.ClickID)
}

func (r *queries) Insert(ctx context.Context, workspaceID, id, placeholderAvatar string, p Patch) (domain.Customer, bool, error) {
	// the conflict target follows the strongest identity supplied
	target := `(workspace_id, anonymous_id) where anonymous_id is not null`
	if p.ExternalID != "" {
		target = `(workspace_id, external_id) where external_id is not null`
	}
	avatar := p.Avatar
	if avatar == "" {
		avatar = placeholderAvatar
	}
	sql := `
insert into customers (
    id, workspace_id, external_id, anonymous_id, name, email, avatar,
    link_id, click_id, last_link_id, last_click_id
) values (
    $1, $2, nullif($3, ''), nullif($4, ''), nullif($5, ''), nullif($6, ''), $7,
    nullif($8, ''), nullif($9, ''), nullif($8, ''), nullif($9, '')
)
on conflict ` + target + ` do update
   set name          = coalesce(excluded.name, customers.name),
       email         = coalesce(excluded.email, customers.email),
       avatar        = coalesce(nullif($10, ''), customers.avatar),
       link_id       = coalesce(customers.link_id, excluded.link_id),
       click_id      = coalesce(customers.click_id, excluded.click_id),
       last_link_id  = coalesce(excluded.last_link_id, customers.last_link_id),
       last_click_id = coalesce(excluded.last_click_id, customers.last_click_id),
       updated_at    = now()
returning` + cols + `, (xmax = 0)`

	rows, err := r.q.Query(ctx, sql,
		id, workspaceID, p.ExternalID, p.AnonymousID, p.Name, p.Email, avatar,
		p.LinkID, p.ClickID, p.Avatar,
	)
	if err != nil {
		return domain.Customer{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Customer{}, false, err
		}
		return domain.Customer{}, false, perr.DBf("customer insert returned no row")
	}
	c, inserted, err := scanInserted(rows)
	if err != nil {
		return domain.Customer{}, false, err
	}
	return c, inserted, rows.Err()
}

// scanInserted reads cols plus the trailing xmax flag
func scanInserted(r store.Row) (domain.Customer, bool, error) {
	var inserted bool
	c, err := scanCustomer(rowTail{r: r, tail: &inserted})
	return c, inserted, err
}

// rowTail appends one destination to a Scan call
type rowTail struct {
	r    store.Row
	tail any
}

func (t rowTail) Scan(dest ...any) error { return t.r.Scan(append(dest, t.tail)...) }

func (r *queries) FindByExternal(ctx context.Context, workspaceID, externalID string) (domain.Customer, error) {
	const sql = `select` + cols + ` from customers where workspace_id = $1 and external_id = $2`
	return store.One(ctx, r.q, scanCustomer, sql, workspaceID, externalID)
}

func (r *queries) FindByAnonymous(ctx context.Context, workspaceID, anonymousID string) (domain.Customer, error) {
	const sql = `select` + cols + ` from customers where workspace_id = $1 and anonymous_id = $2`
	return store.One(ctx, r.q, scanCustomer, sql, workspaceID, anonymousID)
}

func (r *queries) Get(ctx context.Context, workspaceID, id string) (domain.Customer, error) {
	const sql = `select` + cols + ` from customers where workspace_id = $1 and id = $2`
	return store.One(ctx, r.q, scanCustomer, sql, workspaceID, id)
}

func (r *queries) UpdateByID(ctx context.Context, workspaceID, id string, p Patch) (domain.Customer, error) {
	const sql = `
update customers
   set external_id   = coalesce(external_id, nullif($3, '')),
       anonymous_id  = coalesce(anonymous_id, nullif($4, '')),
       name          = coalesce(nullif($5, ''), name),
       email         = coalesce(nullif($6, ''), email),
       avatar        = coalesce(nullif($7, ''), avatar),
       link_id       = coalesce(link_id, nullif($8, '')),
       click_id      = coalesce(click_id, nullif($9, '')),
       last_link_id  = coalesce(nullif($8, ''), last_link_id),
       last_click_id = coalesce(nullif($9, ''), last_click_id),
       updated_at    = now()
 where workspace_id = $1 and id = $2
returning` + cols
	c, ok, err := r.one(ctx, sql, workspaceID, id, p.ExternalID, p.AnonymousID, p.Name, p.Email, p.Avatar, p.LinkID, p.ClickID)
	if err != nil {
		return c, err
	}
	if !ok {
		return c, perr.ErrNotFound
	}
	return c, nil
}

func (r *queries) AppendEvent(ctx context.Context, e EventRow) (bool, error) {
	const sql = `
insert into customer_events (
    id, customer_id, workspace_id, kind, name, amount, currency, link_id, click_id, occurred_at, dedupe_key
) values ($1, $2, $3, $4, $5, $6, $7, nullif($8, ''), nullif($9, ''), $10, $11)
on conflict (dedupe_key) do nothing
`
	tag, err := r.q.Exec(ctx, sql,
		e.ID, e.CustomerID, e.WorkspaceID, e.Kind, e.Name, e.Amount, e.Currency,
		e.LinkID, e.ClickID, e.OccurredAt.UTC(), e.DedupeKey,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func hotscoreTier(v int16) hotscore.Tier {
	if v < int16(hotscore.TierCold) || v > int16(hotscore.TierVeryHot) {
		return hotscore.TierCold
	}
	return hotscore.Tier(v)
}
