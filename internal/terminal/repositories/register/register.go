// Package register is the terminal's local store for sale-side records:
// transactions, cash closures, cash movements, and stock movements. These
// are write-mostly tables; the server never pulls them back, so there is no
// merge path here.
package register

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

type Repository interface {
	InsertTransaction(ctx context.Context, tx *models.Transaction) error

	InsertClosure(ctx context.Context, c *models.CashClosure) error
	UpdateClosure(ctx context.Context, c *models.CashClosure) error
	GetClosure(ctx context.Context, localID int64) (*models.CashClosure, error)
	// OpenClosure returns the currently open session, or ErrorNotFound.
	OpenClosure(ctx context.Context) (*models.CashClosure, error)

	InsertCashMovement(ctx context.Context, m *models.CashMovement) error
	InsertStockMovement(ctx context.Context, m *models.StockMovement) error

	// MaxID returns the greatest local identifier present in any register
	// table, used to seed the terminal's id generator at startup.
	MaxID(ctx context.Context) (int64, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	lines, err := json.Marshal(tx.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal lines: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (local_id, user_id, payment_method, total, lines, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tx.LocalID, tx.UserLocalID, tx.PaymentMethod, tx.Total, string(lines), formatTime(tx.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertClosure(ctx context.Context, c *models.CashClosure) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO closures (local_id, opened_at, closed_at, opening_amount, closing_amount, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.LocalID, formatTime(c.OpenedAt), formatTimePtr(c.ClosedAt), c.OpeningAmount, c.ClosingAmount, formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert closure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateClosure(ctx context.Context, c *models.CashClosure) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE closures SET closed_at = ?, closing_amount = ?, updated_at = ? WHERE local_id = ?
	`, formatTimePtr(c.ClosedAt), c.ClosingAmount, formatTime(c.UpdatedAt), c.LocalID)
	if err != nil {
		return fmt.Errorf("failed to update closure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetClosure(ctx context.Context, localID int64) (*models.CashClosure, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT local_id, opened_at, closed_at, opening_amount, closing_amount, updated_at
		FROM closures WHERE local_id = ?
	`, localID)
	return scanClosure(row)
}

func (r *SQLiteRepository) OpenClosure(ctx context.Context) (*models.CashClosure, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT local_id, opened_at, closed_at, opening_amount, closing_amount, updated_at
		FROM closures WHERE closed_at IS NULL ORDER BY local_id DESC LIMIT 1
	`)
	return scanClosure(row)
}

func scanClosure(row *sql.Row) (*models.CashClosure, error) {
	var (
		c         models.CashClosure
		openedAt  string
		closedAt  sql.NullString
		updatedAt string
	)
	err := row.Scan(&c.LocalID, &openedAt, &closedAt, &c.OpeningAmount, &c.ClosingAmount, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select closure: %w", err)
	}
	c.OpenedAt = parseTime(openedAt)
	c.UpdatedAt = parseTime(updatedAt)
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		c.ClosedAt = &t
	}
	return &c, nil
}

func (r *SQLiteRepository) InsertCashMovement(ctx context.Context, m *models.CashMovement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cash_movements (local_id, closure_local_id, type, amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.LocalID, m.ClosureLocalID, m.Type, m.Amount, m.Reason, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert cash movement: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertStockMovement(ctx context.Context, m *models.StockMovement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_movements (local_id, product_id, delta, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.LocalID, m.ProductLocalID, m.Delta, m.Reason, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MaxID(ctx context.Context) (int64, error) {
	query := `
		SELECT MAX(id) FROM (
			SELECT COALESCE(MAX(local_id), 0) AS id FROM transactions
			UNION ALL SELECT COALESCE(MAX(local_id), 0) FROM closures
			UNION ALL SELECT COALESCE(MAX(local_id), 0) FROM cash_movements
			UNION ALL SELECT COALESCE(MAX(local_id), 0) FROM stock_movements
		)
	`
	var max int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to select max id: %w", err)
	}
	return max, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
