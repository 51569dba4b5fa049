// Package migrations embeds the schema the pipeline reads and writes
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"pimms/internal/platform/store"
)

//go:embed sql/pg/*.sql sql/ch/*.sql
var files embed.FS

// Dialect selects a migration set
type Dialect string

const (
	// Postgres holds customers, events, webhook errors and leases
	Postgres Dialect = "pg"
	// ClickHouse holds the clicks table
	ClickHouse Dialect = "ch"
)

// Script is one migration file
type Script struct {
	Name string
	SQL  string
}

// Scripts returns the migration files for d in name order
func Scripts(d Dialect) ([]Script, error) {
	dir := path.Join("sql", string(d))
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: unknown dialect %q: %w", d, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Script, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(files, path.Join(dir, n))
		if err != nil {
			return nil, err
		}
		out = append(out, Script{Name: n, SQL: string(b)})
	}
	return out, nil
}

// Apply runs every postgres script inside one transaction
// scripts are idempotent so Apply is safe to rerun
func Apply(ctx context.Context, db store.TxRunner) error {
	scripts, err := Scripts(Postgres)
	if err != nil {
		return err
	}
	return db.Tx(ctx, func(q store.RowQuerier) error {
		for _, s := range scripts {
			if _, err := q.Exec(ctx, s.SQL); err != nil {
				return fmt.Errorf("migrations: %s: %w", s.Name, err)
			}
		}
		return nil
	})
}

// ApplyClickHouse runs every clickhouse script in order
// clickhouse has no ddl transactions, scripts are create-if-not-exists
func ApplyClickHouse(ctx context.Context, ch store.Clickhouse) error {
	ex, ok := ch.(store.CHExecer)
	if !ok {
		return fmt.Errorf("migrations: clickhouse seam cannot exec")
	}
	scripts, err := Scripts(ClickHouse)
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if err := ex.Exec(ctx, s.SQL); err != nil {
			return fmt.Errorf("migrations: %s: %w", s.Name, err)
		}
	}
	return nil
}
