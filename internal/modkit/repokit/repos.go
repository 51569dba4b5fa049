// Package repokit holds the seams repositories bind to
package repokit

import (
	"context"

	"pimms/internal/platform/store"
)

// Queryer is the sql surface a bound repo sees, either the pool or a tx
type Queryer = store.RowQuerier

// TxRunner opens transactions for services that span several repo calls
type TxRunner = store.TxRunner

// CH exposes the clickhouse seam to repos that read columnar data
func CH(_ context.Context, db store.Clickhouse) store.Clickhouse { return db }
