package synclog

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE sync_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entity_type TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 0,
  success INTEGER NOT NULL DEFAULT 0,
  message TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestAppendAndRecent_NewestFirst(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Append(ctx, &models.SyncLogRecord{EntityType: models.EntityProducts, Count: 2, Success: true}))
	require.NoError(t, r.Append(ctx, &models.SyncLogRecord{EntityType: models.EntityProducts, Success: false, Message: "timeout"}))

	recs, err := r.Recent(ctx, models.EntityProducts, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Success)
	assert.Equal(t, "timeout", recs[0].Message)
	assert.True(t, recs[1].Success)
	assert.Equal(t, 2, recs[1].Count)
}

func TestAppend_TrimsPerTypeBound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	r.limit = 5
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, r.Append(ctx, &models.SyncLogRecord{
			EntityType: models.EntityTransactions,
			Success:    true,
			Message:    fmt.Sprintf("batch %d", i),
		}))
	}
	// Another type's history must not be affected by the trim.
	require.NoError(t, r.Append(ctx, &models.SyncLogRecord{EntityType: models.EntityUsers, Success: true}))

	recs, err := r.Recent(ctx, models.EntityTransactions, 100)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "batch 7", recs[0].Message)
	assert.Equal(t, "batch 3", recs[4].Message)

	users, err := r.Recent(ctx, models.EntityUsers, 100)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
