package services

import (
	"context"
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

const (
	MovementDeposit    = "deposit"
	MovementWithdrawal = "withdrawal"
)

type RegisterService struct {
	registerRepo register.Repository
	catalogRepo  catalog.Repository
	queue        queue.Repository
	ids          *store.IDGenerator
}

func NewRegisterService(registerRepo register.Repository, catalogRepo catalog.Repository, q queue.Repository, ids *store.IDGenerator) *RegisterService {
	return &RegisterService{registerRepo: registerRepo, catalogRepo: catalogRepo, queue: q, ids: ids}
}

// OpenClosure starts a cash-register session. Only one session may be open
// at a time on a terminal.
func (s *RegisterService) OpenClosure(ctx context.Context, openingAmount float64) (*models.CashClosure, error) {
	if _, err := s.registerRepo.OpenClosure(ctx); err == nil {
		return nil, common.ErrorClosureOpen
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	c := &models.CashClosure{
		LocalID:       s.ids.Next(),
		OpenedAt:      now,
		OpeningAmount: openingAmount,
		UpdatedAt:     now,
	}
	if err := s.registerRepo.InsertClosure(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := enqueue(ctx, s.queue, models.EntityClosures, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CloseClosure settles the open session. The settled closure is enqueued
// again: the server's idempotent upsert overwrites the earlier open-state
// row, so the last submitted state wins.
func (s *RegisterService) CloseClosure(ctx context.Context, closingAmount float64) (*models.CashClosure, error) {
	c, err := s.registerRepo.OpenClosure(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorClosureNotOpen
		}
		return nil, err
	}

	now := time.Now().UTC()
	c.ClosedAt = &now
	c.ClosingAmount = closingAmount
	c.UpdatedAt = now
	if err := s.registerRepo.UpdateClosure(ctx, c); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := enqueue(ctx, s.queue, models.EntityClosures, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddCashMovement records a deposit or withdrawal against the open session.
// The movement references the closure by its local identifier; the server
// resolves that to its own closure key when the movement is pushed.
func (s *RegisterService) AddCashMovement(ctx context.Context, movementType string, amount float64, reason string) (*models.CashMovement, error) {
	c, err := s.registerRepo.OpenClosure(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorClosureNotOpen
		}
		return nil, err
	}

	m := &models.CashMovement{
		LocalID:        s.ids.Next(),
		ClosureLocalID: c.LocalID,
		Type:           movementType,
		Amount:         amount,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.registerRepo.InsertCashMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := enqueue(ctx, s.queue, models.EntityCashMovements, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordStockMovement adjusts a product's stock outside of sales (delivery,
// loss, correction) and replicates the movement.
func (s *RegisterService) RecordStockMovement(ctx context.Context, productID int64, delta float64, reason string) (*models.StockMovement, error) {
	if err := s.catalogRepo.AdjustStock(ctx, productID, delta); err != nil {
		return nil, err
	}

	m := &models.StockMovement{
		LocalID:        s.ids.Next(),
		ProductLocalID: productID,
		Delta:          delta,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.registerRepo.InsertStockMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	if err := enqueue(ctx, s.queue, models.EntityStockMovements, m); err != nil {
		return nil, err
	}
	return m, nil
}
