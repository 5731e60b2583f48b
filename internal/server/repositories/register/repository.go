// Package register persists the operational records terminals push: sales
// transactions, cash-register sessions, cash movements, and stock movements.
package register

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

// Repository is the storage contract for register records. Append-only
// records (transactions, cash movements, stock movements) are deduplicated
// on local id plus creation time: inserting the same record twice applies it
// once and reports false the second time. Closures are upserted by local id
// so a settled closure overwrites its earlier open state.
type Repository interface {
	InsertTransaction(ctx context.Context, t *models.Transaction) (bool, error)
	UpsertClosure(ctx context.Context, c *models.CashClosure) error
	// ClosureIDByLocalID resolves a terminal's closure identifier to the
	// server primary key. Returns common.ErrorNotFound when no closure with
	// that local id has been pushed yet.
	ClosureIDByLocalID(ctx context.Context, localID int64) (int64, error)
	InsertCashMovement(ctx context.Context, m *models.CashMovement) (bool, error)
	InsertStockMovement(ctx context.Context, m *models.StockMovement) (bool, error)
}
