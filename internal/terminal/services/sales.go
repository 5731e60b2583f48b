// Package services is the terminal's UI-facing layer. Every mutation here
// follows the same discipline: write the local store, snapshot the entity
// into the durable queue, return. Nothing in this package touches the
// network, so a sale completes identically online and offline.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/queue"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/register"
	"github.com/dmitrijs2005/possync/internal/terminal/store"
)

type SalesService struct {
	registerRepo register.Repository
	catalogRepo  catalog.Repository
	queue        queue.Repository
	ids          *store.IDGenerator
}

func NewSalesService(registerRepo register.Repository, catalogRepo catalog.Repository, q queue.Repository, ids *store.IDGenerator) *SalesService {
	return &SalesService{registerRepo: registerRepo, catalogRepo: catalogRepo, queue: q, ids: ids}
}

// RecordSale finalizes one sale: persists the transaction locally, adjusts
// product stock, and enqueues the snapshot for push. Stock adjustments are
// local display state only; the server derives authoritative stock from the
// transaction lines it accepts.
func (s *SalesService) RecordSale(ctx context.Context, userID int64, paymentMethod string, lines []models.TransactionLine) (*models.Transaction, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty sale: %w", common.ErrorInternal)
	}

	var total float64
	for i := range lines {
		lines[i].Total = lines[i].Quantity * lines[i].UnitPrice
		total += lines[i].Total
	}

	tx := &models.Transaction{
		LocalID:       s.ids.Next(),
		UserLocalID:   userID,
		PaymentMethod: paymentMethod,
		Total:         total,
		Lines:         lines,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.registerRepo.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	for _, line := range lines {
		if line.ProductID == 0 {
			continue
		}
		err := s.catalogRepo.AdjustStock(ctx, line.ProductID, -line.Quantity)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("stock adjust error: %w", err)
		}
	}

	if err := enqueue(ctx, s.queue, models.EntityTransactions, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// enqueue snapshots an entity into the durable queue. Shared by all services.
func enqueue(ctx context.Context, q queue.Repository, entityType models.EntityType, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", entityType, err)
	}
	if err := q.Enqueue(ctx, entityType, payload); err != nil {
		return err
	}
	return nil
}
