// Package store opens the terminal's sqlite database, applies schema
// migrations, and wires up the local repositories. The same database file
// holds both the business tables and the sync engine's durable state (queue,
// cursor, sync log), so a single fsync discipline covers all of it.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/terminal/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/cursor"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/queue"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/register"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/synclog"
	"github.com/dmitrijs2005/possync/internal/terminal/store/migrations"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the terminal-side repositories bound to one database.
type Repositories struct {
	Queue    queue.Repository
	Cursor   cursor.Repository
	SyncLog  synclog.Repository
	Catalog  catalog.Repository
	Register register.Repository
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the sqlite database at dsn, runs
// migrations, and returns the repository set together with the raw handle.
// The caller owns closing the handle.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	// Serialized access keeps the synchronous enqueue path safe against the
	// sync cycle writing from another goroutine.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}

	repos := &Repositories{
		Queue:    queue.NewSQLiteRepository(db),
		Cursor:   cursor.NewSQLiteRepository(db),
		SyncLog:  synclog.NewSQLiteRepository(db),
		Catalog:  catalog.NewSQLiteRepository(db),
		Register: register.NewSQLiteRepository(db),
	}
	return repos, db, nil
}
