package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/possync/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and local
// development. Semantics mirror the postgres implementation: idempotent
// upserts keyed by local id, wholesale child replacement for menus.
type InMemoryRepository struct {
	mu sync.RWMutex

	nextID     int64
	products   map[int64]*models.Product
	categories map[int64]*models.Category
	menus      map[int64]*models.Menu
	users      map[int64]*models.User
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		products:   make(map[int64]*models.Product),
		categories: make(map[int64]*models.Category),
		menus:      make(map[int64]*models.Menu),
		users:      make(map[int64]*models.User),
	}
}

func (r *InMemoryRepository) issueID() int64 {
	r.nextID++
	return r.nextID
}

func (r *InMemoryRepository) UpsertProduct(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.LocalID != 0 {
		for id, existing := range r.products {
			if existing.LocalID == p.LocalID {
				p.ID = id
				break
			}
		}
	}
	if p.ID == 0 {
		p.ID = r.issueID()
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *InMemoryRepository) UpsertCategory(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.LocalID != 0 {
		for id, existing := range r.categories {
			if existing.LocalID == c.LocalID {
				c.ID = id
				break
			}
		}
	}
	if c.ID == 0 {
		c.ID = r.issueID()
	}
	clone := *c
	r.categories[c.ID] = &clone
	return nil
}

func (r *InMemoryRepository) UpsertMenu(ctx context.Context, m *models.Menu) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.LocalID != 0 {
		for id, existing := range r.menus {
			if existing.LocalID == m.LocalID {
				m.ID = id
				break
			}
		}
	}
	if m.ID == 0 {
		m.ID = r.issueID()
	}
	clone := *m
	clone.Components = append([]models.MenuComponent{}, m.Components...)
	clone.AllowedProducts = append([]int64{}, m.AllowedProducts...)
	r.menus[m.ID] = &clone
	return nil
}

func (r *InMemoryRepository) UpsertUser(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.LocalID != 0 {
		for id, existing := range r.users {
			if existing.LocalID == u.LocalID {
				u.ID = id
				break
			}
		}
	}
	if u.ID == 0 {
		u.ID = r.issueID()
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *InMemoryRepository) AdjustStock(ctx context.Context, productID int64, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.LocalID == productID {
			p.Stock += delta
			return nil
		}
	}
	if p, ok := r.products[productID]; ok {
		p.Stock += delta
	}
	return nil
}

func (r *InMemoryRepository) ProductsUpdatedSince(ctx context.Context, since time.Time) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Product{}
	for _, p := range r.products {
		if p.UpdatedAt.After(since) {
			clone := *p
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryRepository) CategoriesUpdatedSince(ctx context.Context, since time.Time) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Category{}
	for _, c := range r.categories {
		if c.UpdatedAt.After(since) {
			clone := *c
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryRepository) MenusUpdatedSince(ctx context.Context, since time.Time) ([]*models.Menu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Menu{}
	for _, m := range r.menus {
		if m.UpdatedAt.After(since) {
			clone := *m
			clone.Components = append([]models.MenuComponent{}, m.Components...)
			clone.AllowedProducts = append([]int64{}, m.AllowedProducts...)
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *InMemoryRepository) UsersUpdatedSince(ctx context.Context, since time.Time) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.User{}
	for _, u := range r.users {
		if u.UpdatedAt.After(since) {
			clone := *u
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
