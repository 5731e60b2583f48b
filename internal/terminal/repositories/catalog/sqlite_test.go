package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
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
CREATE TABLE products (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  price REAL NOT NULL DEFAULT 0,
  category_id INTEGER NOT NULL DEFAULT 0,
  stock REAL NOT NULL DEFAULT 0,
  image_path TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT NOT NULL
);
CREATE TABLE categories (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT NOT NULL
);
CREATE TABLE menus (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  price REAL NOT NULL DEFAULT 0,
  image_path TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT NOT NULL
);
CREATE TABLE menu_components (
  menu_id INTEGER NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE menu_allowed_products (
  menu_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL
);
CREATE TABLE users (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'cashier',
  pin_hash TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestUpsertProduct_InsertThenOverwrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	p := &models.Product{LocalID: 1, Name: "espresso", Price: 2.2, Stock: 10, IsActive: true, UpdatedAt: time.Now()}
	require.NoError(t, r.UpsertProduct(ctx, p))

	p.Price = 2.5
	p.Stock = 8
	require.NoError(t, r.UpsertProduct(ctx, p))

	got, err := r.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "espresso", got.Name)
	assert.Equal(t, 2.5, got.Price)
	assert.Equal(t, 8.0, got.Stock)
}

func TestGetProduct_NotFound(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	_, err := r.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRemoveProduct_LeavesOtherRows(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 1, Name: "a", IsActive: true, UpdatedAt: time.Now()}))
	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 2, Name: "b", IsActive: true, UpdatedAt: time.Now()}))

	require.NoError(t, r.RemoveProduct(ctx, 1))

	list, err := r.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].LocalID)
}

func TestListActiveProducts_ExcludesDeactivated(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 1, Name: "a", IsActive: true, UpdatedAt: time.Now()}))
	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 2, Name: "b", IsActive: false, UpdatedAt: time.Now()}))

	list, err := r.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].LocalID)
}

func TestAdjustStock(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 1, Name: "a", Stock: 10, IsActive: true, UpdatedAt: time.Now()}))
	require.NoError(t, r.AdjustStock(ctx, 1, -3))

	got, err := r.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Stock)

	assert.ErrorIs(t, r.AdjustStock(ctx, 99, 1), common.ErrorNotFound)
}

func TestUpsertMenu_ReplacesChildrenWholesale(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	m := &models.Menu{
		LocalID: 5, Name: "lunch", Price: 9.9, IsActive: true, UpdatedAt: time.Now(),
		Components:      []models.MenuComponent{{Name: "main", Quantity: 1}, {Name: "side", Quantity: 2}},
		AllowedProducts: []int64{1, 2, 3},
	}
	require.NoError(t, r.UpsertMenu(ctx, m))

	m.Components = []models.MenuComponent{{Name: "main", Quantity: 1}}
	m.AllowedProducts = []int64{4}
	require.NoError(t, r.UpsertMenu(ctx, m))

	got, err := r.GetMenu(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got.Components, 1)
	assert.Equal(t, "main", got.Components[0].Name)
	assert.Equal(t, []int64{4}, got.AllowedProducts)
}

func TestRemoveMenu_RemovesChildren(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	m := &models.Menu{
		LocalID: 5, Name: "lunch", IsActive: true, UpdatedAt: time.Now(),
		Components:      []models.MenuComponent{{Name: "main", Quantity: 1}},
		AllowedProducts: []int64{1},
	}
	require.NoError(t, r.UpsertMenu(ctx, m))
	require.NoError(t, r.RemoveMenu(ctx, 5))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM menu_components`).Scan(&n))
	assert.Equal(t, 0, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM menu_allowed_products`).Scan(&n))
	assert.Equal(t, 0, n)

	_, err := r.GetMenu(ctx, 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpsertUser_AndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	u := &models.User{LocalID: 3, Name: "alice", Role: "manager", PinHash: "h1", IsActive: true, UpdatedAt: time.Now()}
	require.NoError(t, r.UpsertUser(ctx, u))

	got, err := r.GetUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "h1", got.PinHash)
}

func TestMaxID_AcrossTables(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	max, err := r.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	require.NoError(t, r.UpsertProduct(ctx, &models.Product{LocalID: 7, Name: "a", IsActive: true, UpdatedAt: time.Now()}))
	require.NoError(t, r.UpsertCategory(ctx, &models.Category{LocalID: 12, Name: "drinks", IsActive: true, UpdatedAt: time.Now()}))
	require.NoError(t, r.UpsertUser(ctx, &models.User{LocalID: 4, Name: "bob", IsActive: true, UpdatedAt: time.Now()}))

	max, err = r.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), max)
}
