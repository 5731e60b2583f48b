// Package cursor persists the pull cursor: the server-reported timestamp of
// the last fully merged pull. It lives in the metadata table so it shares the
// durability guarantees of the queue.
package cursor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
)

const lastSyncKey = "last_sync_at"

type Repository interface {
	// Get returns the current cursor, or the zero time when no pull has ever
	// completed (which makes the first diff request a full resync).
	Get(ctx context.Context) (time.Time, error)

	// Advance moves the cursor forward to ts. A ts at or before the current
	// cursor is ignored: the cursor is monotonically non-decreasing.
	Advance(ctx context.Context, ts time.Time) error

	// Reset sets the cursor back to the zero time to force a full resync.
	Reset(ctx context.Context) error
}

// SQLiteRepository stores the cursor in the metadata key/value table.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, lastSyncKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt sync cursor %q: %w", value, err)
	}
	return ts, nil
}

func (r *SQLiteRepository) Advance(ctx context.Context, ts time.Time) error {
	current, err := r.Get(ctx)
	if err != nil {
		return err
	}
	if !ts.After(current) {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastSyncKey, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, lastSyncKey)
	if err != nil {
		return fmt.Errorf("failed to reset sync cursor: %w", err)
	}
	return nil
}
