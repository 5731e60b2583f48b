package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/queue"
	"github.com/dmitrijs2005/possync/internal/terminal/store"
	"golang.org/x/crypto/bcrypt"
)

type CatalogService struct {
	catalogRepo catalog.Repository
	queue       queue.Repository
	ids         *store.IDGenerator
}

func NewCatalogService(catalogRepo catalog.Repository, q queue.Repository, ids *store.IDGenerator) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo, queue: q, ids: ids}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.catalogRepo.ListActiveProducts(ctx)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.catalogRepo.ListActiveCategories(ctx)
}

func (s *CatalogService) ListMenus(ctx context.Context) ([]*models.Menu, error) {
	return s.catalogRepo.ListActiveMenus(ctx)
}

// SaveProduct creates or updates a product locally and enqueues it. A zero
// LocalID means a new product.
func (s *CatalogService) SaveProduct(ctx context.Context, p *models.Product) error {
	if p.LocalID == 0 {
		p.LocalID = s.ids.Next()
	}
	p.IsActive = true
	p.UpdatedAt = time.Now().UTC()

	if err := s.catalogRepo.UpsertProduct(ctx, p); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return enqueue(ctx, s.queue, models.EntityProducts, p)
}

// DeactivateProduct soft-deletes a product: the isActive flip plus updatedAt
// bump replicates like any other mutation, and other terminals drop the
// product from their active set on their next pull.
func (s *CatalogService) DeactivateProduct(ctx context.Context, localID int64) error {
	p, err := s.catalogRepo.GetProduct(ctx, localID)
	if err != nil {
		return err
	}
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()

	if err := s.catalogRepo.UpsertProduct(ctx, p); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return enqueue(ctx, s.queue, models.EntityProducts, p)
}

// SaveCategory creates or updates a category locally and enqueues it.
func (s *CatalogService) SaveCategory(ctx context.Context, c *models.Category) error {
	if c.LocalID == 0 {
		c.LocalID = s.ids.Next()
	}
	c.IsActive = true
	c.UpdatedAt = time.Now().UTC()

	if err := s.catalogRepo.UpsertCategory(ctx, c); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	return enqueue(ctx, s.queue, models.EntityCategories, c)
}

// VerifyUserPIN checks an operator's PIN against the locally replicated
// hash, so sign-in works offline.
func (s *CatalogService) VerifyUserPIN(ctx context.Context, userID int64, pin string) (*models.User, error) {
	u, err := s.catalogRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)); err != nil {
		return nil, common.ErrInvalidPIN
	}
	return u, nil
}
