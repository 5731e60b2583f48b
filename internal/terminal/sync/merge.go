package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/terminal/models"
	"github.com/dmitrijs2005/possync/internal/terminal/repositories/catalog"
	"github.com/dmitrijs2005/possync/internal/terminal/store"
)

// MergeFunc reconciles one pulled batch of a single entity type into the
// local store. Handlers are registered at engine construction; a pull batch
// for a type without a handler is dropped with a warning.
type MergeFunc func(ctx context.Context, batch json.RawMessage) error

// Mergers builds the merge handler map over the local catalog store. Every
// handler follows the same shape: resolve the effective local identifier,
// feed it to the id generator so future local ids stay collision-free,
// remove on isActive=false, otherwise upsert (last writer wins by pull
// order — the server has already aggregated all terminals' pushes, so two
// terminals editing the same record offline resolve to whichever synced
// last, silently; that is the accepted consistency model).
func Mergers(repo catalog.Repository, ids *store.IDGenerator) map[models.EntityType]MergeFunc {
	return map[models.EntityType]MergeFunc{
		models.EntityProducts:   mergeProducts(repo, ids),
		models.EntityCategories: mergeCategories(repo, ids),
		models.EntityMenus:      mergeMenus(repo, ids),
		models.EntityUsers:      mergeUsers(repo, ids),
	}
}

func mergeProducts(repo catalog.Repository, ids *store.IDGenerator) MergeFunc {
	return func(ctx context.Context, batch json.RawMessage) error {
		var incoming []models.Product
		if err := json.Unmarshal(batch, &incoming); err != nil {
			return fmt.Errorf("failed to decode products batch: %w", err)
		}
		for _, p := range incoming {
			id := models.EffectiveID(p.LocalID, p.ID)
			ids.Observe(id)
			if !p.IsActive {
				if err := repo.RemoveProduct(ctx, id); err != nil {
					return err
				}
				continue
			}
			p.LocalID = id
			p.ID = 0
			if err := repo.UpsertProduct(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	}
}

func mergeCategories(repo catalog.Repository, ids *store.IDGenerator) MergeFunc {
	return func(ctx context.Context, batch json.RawMessage) error {
		var incoming []models.Category
		if err := json.Unmarshal(batch, &incoming); err != nil {
			return fmt.Errorf("failed to decode categories batch: %w", err)
		}
		for _, c := range incoming {
			id := models.EffectiveID(c.LocalID, c.ID)
			ids.Observe(id)
			if !c.IsActive {
				if err := repo.RemoveCategory(ctx, id); err != nil {
					return err
				}
				continue
			}
			c.LocalID = id
			c.ID = 0
			if err := repo.UpsertCategory(ctx, &c); err != nil {
				return err
			}
		}
		return nil
	}
}

func mergeMenus(repo catalog.Repository, ids *store.IDGenerator) MergeFunc {
	return func(ctx context.Context, batch json.RawMessage) error {
		var incoming []models.Menu
		if err := json.Unmarshal(batch, &incoming); err != nil {
			return fmt.Errorf("failed to decode menus batch: %w", err)
		}
		for _, m := range incoming {
			id := models.EffectiveID(m.LocalID, m.ID)
			ids.Observe(id)
			if !m.IsActive {
				if err := repo.RemoveMenu(ctx, id); err != nil {
					return err
				}
				continue
			}
			m.LocalID = id
			m.ID = 0
			if err := repo.UpsertMenu(ctx, &m); err != nil {
				return err
			}
		}
		return nil
	}
}

func mergeUsers(repo catalog.Repository, ids *store.IDGenerator) MergeFunc {
	return func(ctx context.Context, batch json.RawMessage) error {
		var incoming []models.User
		if err := json.Unmarshal(batch, &incoming); err != nil {
			return fmt.Errorf("failed to decode users batch: %w", err)
		}
		for _, u := range incoming {
			id := models.EffectiveID(u.LocalID, u.ID)
			ids.Observe(id)
			if !u.IsActive {
				if err := repo.RemoveUser(ctx, id); err != nil {
					return err
				}
				continue
			}
			u.LocalID = id
			u.ID = 0
			u.PIN = ""
			if err := repo.UpsertUser(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	}
}
