// Package catalog is the terminal's local store for pull-replicated entities:
// products, categories, menus, and users. Rows are keyed by the effective
// local identifier; removing a row (soft-delete propagation) forgets the
// record but never the identifier, which the id generator has already
// observed.
package catalog

import (
	"context"

	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

type Repository interface {
	// Products.
	UpsertProduct(ctx context.Context, p *models.Product) error
	RemoveProduct(ctx context.Context, localID int64) error
	GetProduct(ctx context.Context, localID int64) (*models.Product, error)
	ListActiveProducts(ctx context.Context) ([]*models.Product, error)
	AdjustStock(ctx context.Context, localID int64, delta float64) error

	// Categories.
	UpsertCategory(ctx context.Context, c *models.Category) error
	RemoveCategory(ctx context.Context, localID int64) error
	ListActiveCategories(ctx context.Context) ([]*models.Category, error)

	// Menus. Upsert replaces components and allowed-product links wholesale.
	UpsertMenu(ctx context.Context, m *models.Menu) error
	RemoveMenu(ctx context.Context, localID int64) error
	GetMenu(ctx context.Context, localID int64) (*models.Menu, error)
	ListActiveMenus(ctx context.Context) ([]*models.Menu, error)

	// Users.
	UpsertUser(ctx context.Context, u *models.User) error
	RemoveUser(ctx context.Context, localID int64) error
	GetUser(ctx context.Context, localID int64) (*models.User, error)
	ListActiveUsers(ctx context.Context) ([]*models.User, error)

	// MaxID returns the greatest identifier present in any catalog table,
	// used to seed the terminal's id generator at startup.
	MaxID(ctx context.Context) (int64, error)
}
