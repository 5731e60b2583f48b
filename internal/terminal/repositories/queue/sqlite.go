package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

// SQLiteRepository implements Repository over a DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, entityType models.EntityType, payload json.RawMessage) error {
	query := `INSERT INTO sync_queue (entity_type, payload, created_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, string(entityType), string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", entityType, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByType(ctx context.Context, entityType models.EntityType) ([]*models.QueueEntry, error) {
	query := `SELECT id, payload, created_at, retry_count, last_error FROM sync_queue WHERE entity_type = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueEntry
	for rows.Next() {
		var (
			item      models.QueueEntry
			payload   string
			createdAt string
		)
		if err := rows.Scan(&item.ID, &payload, &createdAt, &item.RetryCount, &item.LastError); err != nil {
			return nil, err
		}
		item.EntityType = entityType
		item.Payload = json.RawMessage(payload)
		item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByIDs(ctx context.Context, entityType models.EntityType, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM sync_queue WHERE entity_type = ? AND id IN (%s)`, placeholders(len(ids)))
	_, err := r.db.ExecContext(ctx, query, args(entityType, ids)...)
	if err != nil {
		return fmt.Errorf("failed to delete queue entries: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementRetry(ctx context.Context, entityType models.EntityType, ids []int64, lastError string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE sync_queue SET retry_count = retry_count + 1, last_error = ? WHERE entity_type = ? AND id IN (%s)`,
		placeholders(len(ids)))
	callArgs := append([]any{lastError}, args(entityType, ids)...)
	_, err := r.db.ExecContext(ctx, query, callArgs...)
	if err != nil {
		return fmt.Errorf("failed to increment retry counters: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}
	return count, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(entityType models.EntityType, ids []int64) []any {
	result := make([]any, 0, len(ids)+1)
	result = append(result, string(entityType))
	for _, id := range ids {
		result = append(result, id)
	}
	return result
}
