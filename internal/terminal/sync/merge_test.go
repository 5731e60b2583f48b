package sync

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeProducts_InsertOverwriteRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityProducts]

	// Insert: a record created on another terminal (localId set there).
	batch := mustJSON(t, []models.Product{
		{ID: 100, LocalID: 7, Name: "espresso", Price: 2.2, IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	got, err := env.catalog.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "espresso", got.Name)

	// Overwrite: a later pull shallow-overwrites the fields (last writer
	// wins by pull order).
	batch = mustJSON(t, []models.Product{
		{ID: 100, LocalID: 7, Name: "double espresso", Price: 2.8, IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	got, err = env.catalog.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "double espresso", got.Name)
	assert.Equal(t, 2.8, got.Price)

	// Soft delete: isActive=false removes the record from the active set.
	batch = mustJSON(t, []models.Product{
		{ID: 100, LocalID: 7, Name: "double espresso", IsActive: false, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	_, err = env.catalog.GetProduct(ctx, 7)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// The identifier survives the removal: the generator never reissues it.
	assert.Greater(t, env.ids.Next(), int64(7))
}

func TestMergeProducts_FallsBackToServerID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityProducts]

	// A record created centrally has no client-origin local id.
	batch := mustJSON(t, []models.Product{
		{ID: 42, Name: "flat white", IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	got, err := env.catalog.GetProduct(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "flat white", got.Name)
}

func TestMergeProducts_ObservesIDsForGeneration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityProducts]

	batch := mustJSON(t, []models.Product{
		{ID: 500, Name: "a", IsActive: true, UpdatedAt: time.Now()},
		{ID: 20, Name: "b", IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	assert.Equal(t, int64(501), env.ids.Next())
}

func TestMergeMenus_ReplacesComposition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityMenus]

	batch := mustJSON(t, []models.Menu{{
		ID: 3, Name: "lunch", Price: 9.5, IsActive: true, UpdatedAt: time.Now(),
		Components:      []models.MenuComponent{{Name: "main", Quantity: 1}},
		AllowedProducts: []int64{1, 2},
	}})
	require.NoError(t, merge(ctx, batch))

	batch = mustJSON(t, []models.Menu{{
		ID: 3, Name: "lunch", Price: 9.5, IsActive: true, UpdatedAt: time.Now(),
		Components:      []models.MenuComponent{{Name: "main", Quantity: 1}, {Name: "drink", Quantity: 1}},
		AllowedProducts: []int64{2},
	}})
	require.NoError(t, merge(ctx, batch))

	got, err := env.catalog.GetMenu(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got.Components, 2)
	assert.Equal(t, []int64{2}, got.AllowedProducts)
}

func TestMergeUsers_NeverStoresPlaintextPIN(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityUsers]

	batch := mustJSON(t, []models.User{
		{ID: 9, Name: "alice", Role: "manager", PinHash: "bcrypt-hash", IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	got, err := env.catalog.GetUser(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-hash", got.PinHash)
}

func TestMergeCategories_SoftDeletePropagation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merge := env.engine.mergers[models.EntityCategories]

	batch := mustJSON(t, []models.Category{
		{ID: 5, Name: "drinks", IsActive: true, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	list, err := env.catalog.ListActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	batch = mustJSON(t, []models.Category{
		{ID: 5, Name: "drinks", IsActive: false, UpdatedAt: time.Now()},
	})
	require.NoError(t, merge(ctx, batch))

	list, err = env.catalog.ListActiveCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
