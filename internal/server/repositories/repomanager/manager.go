// Package repomanager wires concrete repository implementations to a storage
// backend and hands out transaction-scoped repository instances.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/server/repositories/register"
)

// RepositoryManager abstracts the storage backend. Catalog and Register
// return repositories bound to db, which may be a transaction handle from
// WithTx, so a whole push batch commits or rolls back as one unit.
type RepositoryManager interface {
	Catalog(db dbx.DBTX) catalog.Repository
	Register(db dbx.DBTX) register.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
