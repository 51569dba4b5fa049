// Package repo reads clicks from clickhouse and links from postgres
package repo

import (
	"context"
	"time"

	"pimms/internal/modkit/repokit"
	perr "pimms/internal/platform/errors"
	"pimms/internal/platform/store"
	"pimms/internal/services/attribution/domain"
)

const clickCols = `click_id, link_id, workspace_id, anonymous_id, url, country, device, referer, timestamp`

// Clicks is a clickhouse backed ClickStore
type Clicks struct{ ch store.Clickhouse }

// NewClicks binds the click store to a clickhouse seam
func NewClicks(ch store.Clickhouse) *Clicks {
	if ch == nil {
		panic("attribution.Clicks requires a non nil Clickhouse")
	}
	return &Clicks{ch: ch}
}

// ClickByToken returns the click recorded under token
func (c *Clicks) ClickByToken(ctx context.Context, token string) (domain.Click, error) {
	const sql = `SELECT ` + clickCols + ` FROM clicks WHERE click_id = ? LIMIT 1`
	rows, err := repokit.CH(ctx, c.ch).Query(ctx, sql, token)
	if err != nil {
		return domain.Click{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "click lookup failed")
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Click{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "click lookup failed")
		}
		return domain.Click{}, perr.ErrNotFound
	}
	return scanClick(rows)
}

// ClicksByAnonymous returns clicks by one visitor since a cutoff, newest first
func (c *Clicks) ClicksByAnonymous(ctx context.Context, workspaceID, anonymousID string, since time.Time, limit int) ([]domain.Click, error) {
	if anonymousID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}
	const sql = `
SELECT ` + clickCols + `
FROM clicks
WHERE workspace_id = ? AND anonymous_id = ? AND timestamp >= ?
ORDER BY timestamp DESC
LIMIT ?`
	rows, err := repokit.CH(ctx, c.ch).Query(ctx, sql, workspaceID, anonymousID, since.UTC(), limit)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "click history failed")
	}
	defer rows.Close()
	var out []domain.Click
	for rows.Next() {
		ck, err := scanClick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ck)
	}
	return out, rows.Err()
}

func scanClick(r store.Row) (domain.Click, error) {
	var ck domain.Click
	err := r.Scan(&ck.Token, &ck.LinkID, &ck.WorkspaceID, &ck.AnonymousID, &ck.URL, &ck.Country, &ck.Device, &ck.Referer, &ck.At)
	ck.At = ck.At.UTC()
	return ck, err
}
