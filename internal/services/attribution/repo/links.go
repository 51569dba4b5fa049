package repo

import (
	"context"

	"pimms/internal/modkit/repokit"
	"pimms/internal/platform/store"
	"pimms/internal/services/attribution/domain"
)

type (
	// PG is a binder for the link store
	PG struct{}
	// links implements domain.LinkStore
	links struct{ q repokit.Queryer }
)

// NewPG returns a binder for the link store
func NewPG() repokit.Binder[domain.LinkStore] { return PG{} }

// Bind wires a Queryer to the link store
func (PG) Bind(q repokit.Queryer) domain.LinkStore { return &links{q: q} }

// LinkByID returns the link or perr.ErrNotFound
func (r *links) LinkByID(ctx context.Context, id string) (domain.Link, error) {
	const sql = `SELECT id, workspace_id, domain, key, url FROM links WHERE id = $1`
	return store.One(ctx, r.q, func(row store.Row) (domain.Link, error) {
		var l domain.Link
		err := row.Scan(&l.ID, &l.WorkspaceID, &l.Domain, &l.Key, &l.URL)
		return l, err
	}, sql, id)
}
