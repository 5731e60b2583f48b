// Package synclog keeps a bounded, most-recent-N log of push outcomes per
// entity type. It exists for the diagnostics view only; the engine never
// reads it back to make decisions.
package synclog

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

// DefaultLimit is how many records are retained per entity type.
const DefaultLimit = 50

type Repository interface {
	// Append records one push outcome and trims the type's history to the
	// configured bound.
	Append(ctx context.Context, rec *models.SyncLogRecord) error

	// Recent returns the newest records for one type, newest first.
	Recent(ctx context.Context, entityType models.EntityType, limit int) ([]*models.SyncLogRecord, error)
}

type SQLiteRepository struct {
	db    dbx.DBTX
	limit int
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, limit: DefaultLimit}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec *models.SyncLogRecord) error {
	success := 0
	if rec.Success {
		success = 1
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_log (entity_type, count, success, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(rec.EntityType), rec.Count, success, rec.Message, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append sync log: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM sync_log WHERE entity_type = ? AND id NOT IN (
			SELECT id FROM sync_log WHERE entity_type = ? ORDER BY id DESC LIMIT ?
		)
	`, string(rec.EntityType), string(rec.EntityType), r.limit)
	if err != nil {
		return fmt.Errorf("failed to trim sync log: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, entityType models.EntityType, limit int) ([]*models.SyncLogRecord, error) {
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, count, success, message, created_at FROM sync_log
		WHERE entity_type = ? ORDER BY id DESC LIMIT ?
	`, string(entityType), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select sync log: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncLogRecord
	for rows.Next() {
		var (
			item      models.SyncLogRecord
			success   int
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.Count, &success, &item.Message, &createdAt); err != nil {
			return nil, err
		}
		item.EntityType = entityType
		item.Success = success != 0
		item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
