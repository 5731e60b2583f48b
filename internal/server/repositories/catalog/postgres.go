package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// nullableID maps a zero local id to SQL NULL so the unique index on
// local_id only binds rows that actually carry one.
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (r *PostgresRepository) UpsertProduct(ctx context.Context, p *models.Product) error {
	if p.LocalID == 0 && p.ID != 0 {
		query := `UPDATE products SET name=$2, price=$3, category_id=$4, stock=$5, image_path=$6, is_active=$7, updated_at=$8, synced_at=now()
			WHERE id=$1`
		_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Price, p.CategoryID, p.Stock, p.ImagePath, p.IsActive, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	}

	query := `INSERT INTO products (local_id, name, price, category_id, stock, image_path, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (local_id) DO UPDATE SET
			name=EXCLUDED.name, price=EXCLUDED.price, category_id=EXCLUDED.category_id,
			stock=EXCLUDED.stock, image_path=EXCLUDED.image_path,
			is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at, synced_at=now()
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, nullableID(p.LocalID), p.Name, p.Price, p.CategoryID, p.Stock, p.ImagePath, p.IsActive, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertCategory(ctx context.Context, c *models.Category) error {
	if c.LocalID == 0 && c.ID != 0 {
		query := `UPDATE categories SET name=$2, is_active=$3, updated_at=$4, synced_at=now() WHERE id=$1`
		_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.IsActive, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	}

	query := `INSERT INTO categories (local_id, name, is_active, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (local_id) DO UPDATE SET
			name=EXCLUDED.name, is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at, synced_at=now()
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, nullableID(c.LocalID), c.Name, c.IsActive, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertMenu(ctx context.Context, m *models.Menu) error {
	if m.LocalID == 0 && m.ID != 0 {
		query := `UPDATE menus SET name=$2, price=$3, image_path=$4, is_active=$5, updated_at=$6, synced_at=now() WHERE id=$1`
		if _, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Price, m.ImagePath, m.IsActive, m.UpdatedAt); err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
	} else {
		query := `INSERT INTO menus (local_id, name, price, image_path, is_active, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (local_id) DO UPDATE SET
				name=EXCLUDED.name, price=EXCLUDED.price, image_path=EXCLUDED.image_path,
				is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at, synced_at=now()
			RETURNING id`
		err := r.db.QueryRowContext(ctx, query, nullableID(m.LocalID), m.Name, m.Price, m.ImagePath, m.IsActive, m.UpdatedAt).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
	}

	// Children are never merged, only replaced.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_components WHERE menu_id=$1`, m.ID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_allowed_products WHERE menu_id=$1`, m.ID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	for _, component := range m.Components {
		_, err := r.db.ExecContext(ctx, `INSERT INTO menu_components (menu_id, name, quantity) VALUES ($1, $2, $3)`, m.ID, component.Name, component.Quantity)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
	}
	for _, productID := range m.AllowedProducts {
		_, err := r.db.ExecContext(ctx, `INSERT INTO menu_allowed_products (menu_id, product_id) VALUES ($1, $2)`, m.ID, productID)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) UpsertUser(ctx context.Context, u *models.User) error {
	if u.LocalID == 0 && u.ID != 0 {
		query := `UPDATE users SET name=$2, role=$3, pin_hash=$4, is_active=$5, updated_at=$6, synced_at=now() WHERE id=$1`
		_, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Role, u.PinHash, u.IsActive, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	}

	query := `INSERT INTO users (local_id, name, role, pin_hash, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (local_id) DO UPDATE SET
			name=EXCLUDED.name, role=EXCLUDED.role, pin_hash=EXCLUDED.pin_hash,
			is_active=EXCLUDED.is_active, updated_at=EXCLUDED.updated_at, synced_at=now()
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query, nullableID(u.LocalID), u.Name, u.Role, u.PinHash, u.IsActive, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AdjustStock(ctx context.Context, productID int64, delta float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = stock + $2 WHERE local_id = $1`, productID, delta)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		_, err = r.db.ExecContext(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, productID, delta)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) ProductsUpdatedSince(ctx context.Context, since time.Time) ([]*models.Product, error) {
	query := `SELECT id, local_id, name, price, category_id, stock, image_path, is_active, updated_at
		FROM products WHERE updated_at > $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.Product{}
	for rows.Next() {
		p := &models.Product{}
		var localID sql.NullInt64
		if err := rows.Scan(&p.ID, &localID, &p.Name, &p.Price, &p.CategoryID, &p.Stock, &p.ImagePath, &p.IsActive, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		p.LocalID = localID.Int64
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CategoriesUpdatedSince(ctx context.Context, since time.Time) ([]*models.Category, error) {
	query := `SELECT id, local_id, name, is_active, updated_at FROM categories WHERE updated_at > $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.Category{}
	for rows.Next() {
		c := &models.Category{}
		var localID sql.NullInt64
		if err := rows.Scan(&c.ID, &localID, &c.Name, &c.IsActive, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		c.LocalID = localID.Int64
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) MenusUpdatedSince(ctx context.Context, since time.Time) ([]*models.Menu, error) {
	query := `SELECT id, local_id, name, price, image_path, is_active, updated_at FROM menus WHERE updated_at > $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.Menu{}
	for rows.Next() {
		m := &models.Menu{Components: []models.MenuComponent{}, AllowedProducts: []int64{}}
		var localID sql.NullInt64
		if err := rows.Scan(&m.ID, &localID, &m.Name, &m.Price, &m.ImagePath, &m.IsActive, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		m.LocalID = localID.Int64
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, m := range result {
		if err := r.loadMenuChildren(ctx, m); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *PostgresRepository) loadMenuChildren(ctx context.Context, m *models.Menu) error {
	rows, err := r.db.QueryContext(ctx, `SELECT name, quantity FROM menu_components WHERE menu_id=$1`, m.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var component models.MenuComponent
		if err := rows.Scan(&component.Name, &component.Quantity); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		m.Components = append(m.Components, component)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := r.db.QueryContext(ctx, `SELECT product_id FROM menu_allowed_products WHERE menu_id=$1`, m.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var productID int64
		if err := prows.Scan(&productID); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		m.AllowedProducts = append(m.AllowedProducts, productID)
	}
	return prows.Err()
}

func (r *PostgresRepository) UsersUpdatedSince(ctx context.Context, since time.Time) ([]*models.User, error) {
	query := `SELECT id, local_id, name, role, pin_hash, is_active, updated_at FROM users WHERE updated_at > $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u := &models.User{}
		var localID sql.NullInt64
		if err := rows.Scan(&u.ID, &localID, &u.Name, &u.Role, &u.PinHash, &u.IsActive, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		u.LocalID = localID.Int64
		result = append(result, u)
	}
	return result, rows.Err()
}
