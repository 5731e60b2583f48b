// Package catalog persists the server's master data: products, categories,
// menus, and operator accounts.
package catalog

import (
	"context"
	"time"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

// Repository is the storage contract for catalog records. Upserts are
// idempotent on the record's client-origin local id: resubmitting the same
// payload overwrites the same row. Records without a local id are managed
// centrally and keyed by the server id alone.
type Repository interface {
	UpsertProduct(ctx context.Context, p *models.Product) error
	UpsertCategory(ctx context.Context, c *models.Category) error
	// UpsertMenu replaces the menu's components and allowed products
	// wholesale on every call.
	UpsertMenu(ctx context.Context, m *models.Menu) error
	UpsertUser(ctx context.Context, u *models.User) error

	// AdjustStock shifts a product's stock by delta, matching first on the
	// local id and then on the server id. Unknown products are ignored.
	AdjustStock(ctx context.Context, productID int64, delta float64) error

	ProductsUpdatedSince(ctx context.Context, since time.Time) ([]*models.Product, error)
	CategoriesUpdatedSince(ctx context.Context, since time.Time) ([]*models.Category, error)
	MenusUpdatedSince(ctx context.Context, since time.Time) ([]*models.Menu, error)
	UsersUpdatedSince(ctx context.Context, since time.Time) ([]*models.User, error)
}
