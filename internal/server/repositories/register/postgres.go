package register

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertTransaction(ctx context.Context, t *models.Transaction) (bool, error) {
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return false, fmt.Errorf("error marshalling lines: %w", err)
	}

	query := `INSERT INTO transactions (local_id, user_local_id, payment_method, total, lines, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (local_id, created_at) DO NOTHING
		RETURNING id`
	err = r.db.QueryRowContext(ctx, query, t.LocalID, t.UserLocalID, t.PaymentMethod, t.Total, lines, t.CreatedAt).Scan(&t.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the record already landed on an earlier push.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) UpsertClosure(ctx context.Context, c *models.CashClosure) error {
	query := `INSERT INTO closures (local_id, opened_at, closed_at, opening_amount, closing_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (local_id) DO UPDATE SET
			opened_at=EXCLUDED.opened_at, closed_at=EXCLUDED.closed_at,
			opening_amount=EXCLUDED.opening_amount, closing_amount=EXCLUDED.closing_amount,
			updated_at=EXCLUDED.updated_at, synced_at=now()
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, c.LocalID, c.OpenedAt, c.ClosedAt, c.OpeningAmount, c.ClosingAmount, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClosureIDByLocalID(ctx context.Context, localID int64) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM closures WHERE local_id=$1`, localID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("error performing sql request: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) InsertCashMovement(ctx context.Context, m *models.CashMovement) (bool, error) {
	query := `INSERT INTO cash_movements (local_id, closure_id, type, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (local_id, created_at) DO NOTHING
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, m.LocalID, m.ClosureID, m.Type, m.Amount, m.Reason, m.CreatedAt).Scan(&m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) InsertStockMovement(ctx context.Context, m *models.StockMovement) (bool, error) {
	query := `INSERT INTO stock_movements (local_id, product_local_id, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (local_id, created_at) DO NOTHING
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, m.LocalID, m.ProductLocalID, m.Delta, m.Reason, m.CreatedAt).Scan(&m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return true, nil
}
