package register

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

type txKey struct {
	localID   int64
	createdAt int64
}

// InMemoryRepository is a map-backed Repository used in tests and local
// development.
type InMemoryRepository struct {
	mu sync.Mutex

	nextID         int64
	transactions   map[txKey]*models.Transaction
	closures       map[int64]*models.CashClosure
	cashMovements  map[txKey]*models.CashMovement
	stockMovements map[txKey]*models.StockMovement
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		transactions:   make(map[txKey]*models.Transaction),
		closures:       make(map[int64]*models.CashClosure),
		cashMovements:  make(map[txKey]*models.CashMovement),
		stockMovements: make(map[txKey]*models.StockMovement),
	}
}

func (r *InMemoryRepository) issueID() int64 {
	r.nextID++
	return r.nextID
}

func (r *InMemoryRepository) Transactions() []*models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		result = append(result, t)
	}
	return result
}

func (r *InMemoryRepository) CashMovements() []*models.CashMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.CashMovement, 0, len(r.cashMovements))
	for _, m := range r.cashMovements {
		result = append(result, m)
	}
	return result
}

func (r *InMemoryRepository) StockMovements() []*models.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*models.StockMovement, 0, len(r.stockMovements))
	for _, m := range r.stockMovements {
		result = append(result, m)
	}
	return result
}

func (r *InMemoryRepository) InsertTransaction(ctx context.Context, t *models.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := txKey{t.LocalID, t.CreatedAt.UnixNano()}
	if _, ok := r.transactions[key]; ok {
		return false, nil
	}
	t.ID = r.issueID()
	clone := *t
	r.transactions[key] = &clone
	return true, nil
}

func (r *InMemoryRepository) UpsertClosure(ctx context.Context, c *models.CashClosure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.closures[c.LocalID]; ok {
		c.ID = existing.ID
	} else {
		c.ID = r.issueID()
	}
	clone := *c
	r.closures[c.LocalID] = &clone
	return nil
}

func (r *InMemoryRepository) ClosureIDByLocalID(ctx context.Context, localID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.closures[localID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return c.ID, nil
}

func (r *InMemoryRepository) InsertCashMovement(ctx context.Context, m *models.CashMovement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := txKey{m.LocalID, m.CreatedAt.UnixNano()}
	if _, ok := r.cashMovements[key]; ok {
		return false, nil
	}
	m.ID = r.issueID()
	clone := *m
	r.cashMovements[key] = &clone
	return true, nil
}

func (r *InMemoryRepository) InsertStockMovement(ctx context.Context, m *models.StockMovement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := txKey{m.LocalID, m.CreatedAt.UnixNano()}
	if _, ok := r.stockMovements[key]; ok {
		return false, nil
	}
	m.ID = r.issueID()
	clone := *m
	r.stockMovements[key] = &clone
	return true, nil
}
