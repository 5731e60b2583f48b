// Package services holds the server's business logic: applying pushed
// batches idempotently, computing changed-since diffs, and exchanging the
// provisioning secret for session tokens.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/models"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// SyncService applies pushed batches and serves diffs. Every batch runs in
// one transaction: a failing record rolls back the whole batch, so the
// terminal retries it wholesale and idempotency absorbs the duplicates.
type SyncService struct {
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func NewSyncService(manager repomanager.RepositoryManager, logger logging.Logger) *SyncService {
	return &SyncService{manager: manager, logger: logger}
}

// ApplyBatch upserts one pushed batch of entityType records. batch is the
// raw JSON array from the request body. Returns the number of records
// actually applied (deduplicated records are not counted) and the local ids
// of records the server had to skip; skipped records stay the terminal's
// responsibility to resubmit.
func (s *SyncService) ApplyBatch(ctx context.Context, entityType models.EntityType, batch json.RawMessage) (int, []int64, error) {
	count := 0
	var skipped []int64
	err := s.manager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		switch entityType {
		case models.EntityTransactions:
			count, err = s.applyTransactions(ctx, tx, batch)
		case models.EntityClosures:
			count, err = s.applyClosures(ctx, tx, batch)
		case models.EntityCashMovements:
			count, skipped, err = s.applyCashMovements(ctx, tx, batch)
		case models.EntityProducts:
			count, err = s.applyProducts(ctx, tx, batch)
		case models.EntityMenus:
			count, err = s.applyMenus(ctx, tx, batch)
		case models.EntityStockMovements:
			count, err = s.applyStockMovements(ctx, tx, batch)
		case models.EntityCategories:
			count, err = s.applyCategories(ctx, tx, batch)
		case models.EntityUsers:
			count, err = s.applyUsers(ctx, tx, batch)
		default:
			err = fmt.Errorf("unknown entity type %q: %w", entityType, common.ErrorNotFound)
		}
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return count, skipped, nil
}

func (s *SyncService) applyTransactions(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.Transaction
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid transactions batch: %w", err)
	}

	registerRepo := s.manager.Register(tx)
	catalogRepo := s.manager.Catalog(tx)

	count := 0
	for _, t := range records {
		applied, err := registerRepo.InsertTransaction(ctx, t)
		if err != nil {
			return 0, err
		}
		if !applied {
			continue
		}
		count++
		// Authoritative stock follows the accepted lines, never the stock
		// figure a terminal happens to report.
		for _, line := range t.Lines {
			if line.ProductID == 0 {
				continue
			}
			if err := catalogRepo.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
				return 0, err
			}
		}
	}
	return count, nil
}

func (s *SyncService) applyClosures(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.CashClosure
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid closures batch: %w", err)
	}

	registerRepo := s.manager.Register(tx)
	for _, c := range records {
		if err := registerRepo.UpsertClosure(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (s *SyncService) applyCashMovements(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, []int64, error) {
	var records []*models.CashMovement
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, nil, fmt.Errorf("invalid cash-movements batch: %w", err)
	}

	registerRepo := s.manager.Register(tx)
	count := 0
	var skipped []int64
	for _, m := range records {
		closureID, err := registerRepo.ClosureIDByLocalID(ctx, m.ClosureLocalID)
		if errors.Is(err, common.ErrorNotFound) {
			// The closure has not been pushed yet. Skipping keeps the rest
			// of the batch, and reporting the skipped id tells the terminal
			// to keep the movement queued for the next cycle.
			s.logger.Warn(ctx, "cash movement references unknown closure, skipping",
				"movement", m.LocalID, "closure", m.ClosureLocalID)
			skipped = append(skipped, m.LocalID)
			continue
		}
		if err != nil {
			return 0, nil, err
		}
		m.ClosureID = closureID

		applied, err := registerRepo.InsertCashMovement(ctx, m)
		if err != nil {
			return 0, nil, err
		}
		if applied {
			count++
		}
	}
	return count, skipped, nil
}

func (s *SyncService) applyProducts(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.Product
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid products batch: %w", err)
	}

	catalogRepo := s.manager.Catalog(tx)
	for _, p := range records {
		if err := catalogRepo.UpsertProduct(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (s *SyncService) applyMenus(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.Menu
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid menus batch: %w", err)
	}

	catalogRepo := s.manager.Catalog(tx)
	for _, m := range records {
		if err := catalogRepo.UpsertMenu(ctx, m); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (s *SyncService) applyStockMovements(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.StockMovement
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid stock-movements batch: %w", err)
	}

	registerRepo := s.manager.Register(tx)
	catalogRepo := s.manager.Catalog(tx)

	count := 0
	for _, m := range records {
		applied, err := registerRepo.InsertStockMovement(ctx, m)
		if err != nil {
			return 0, err
		}
		if !applied {
			continue
		}
		count++
		if err := catalogRepo.AdjustStock(ctx, m.ProductLocalID, m.Delta); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *SyncService) applyCategories(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.Category
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid categories batch: %w", err)
	}

	catalogRepo := s.manager.Catalog(tx)
	for _, c := range records {
		if err := catalogRepo.UpsertCategory(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

func (s *SyncService) applyUsers(ctx context.Context, tx dbx.DBTX, batch json.RawMessage) (int, error) {
	var records []*models.User
	if err := json.Unmarshal(batch, &records); err != nil {
		return 0, fmt.Errorf("invalid users batch: %w", err)
	}

	catalogRepo := s.manager.Catalog(tx)
	for _, u := range records {
		// A plaintext PIN only travels on the first push of a
		// terminal-created user; it is hashed here and never stored.
		if u.PIN != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.PIN), bcrypt.DefaultCost)
			if err != nil {
				return 0, fmt.Errorf("failed to hash pin: %w", err)
			}
			u.PinHash = string(hash)
			u.PIN = ""
		}
		if err := catalogRepo.UpsertUser(ctx, u); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

// Diff returns every catalog record updated after since, stamped with the
// server time terminals persist as their next cursor. The stamp is taken
// before the reads: a record updated mid-query is re-sent next pull, which
// the idempotent merge absorbs.
func (s *SyncService) Diff(ctx context.Context, since time.Time) (*models.DiffResponse, error) {
	ts := time.Now().UTC()
	catalogRepo := s.manager.Catalog(nil)

	products, err := catalogRepo.ProductsUpdatedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	menus, err := catalogRepo.MenusUpdatedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	categories, err := catalogRepo.CategoriesUpdatedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	users, err := catalogRepo.UsersUpdatedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	return &models.DiffResponse{
		Ts:         ts,
		Products:   products,
		Menus:      menus,
		Categories: categories,
		Users:      users,
	}, nil
}
