package repomanager

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/server/repositories/register"
)

// InMemoryRepositoryManager serves the in-memory repositories regardless of
// the handle passed in; WithTx just runs fn, there is nothing to roll back.
type InMemoryRepositoryManager struct {
	catalog  *catalog.InMemoryRepository
	register *register.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		catalog:  catalog.NewInMemoryRepository(),
		register: register.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Catalog(db dbx.DBTX) catalog.Repository {
	return m.catalog
}

func (m *InMemoryRepositoryManager) Register(db dbx.DBTX) register.Repository {
	return m.register
}

// RegisterInMemory exposes the concrete register repository so tests can
// inspect what was stored.
func (m *InMemoryRepositoryManager) RegisterInMemory() *register.InMemoryRepository {
	return m.register
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
