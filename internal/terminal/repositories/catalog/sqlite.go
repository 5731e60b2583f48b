package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/possync/internal/common"
	"github.com/dmitrijs2005/possync/internal/dbx"
	"github.com/dmitrijs2005/possync/internal/terminal/models"
)

// SQLiteRepository implements Repository over a DBTX (*sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, price, category_id, stock, image_path, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			category_id = excluded.category_id,
			stock = excluded.stock,
			image_path = excluded.image_path,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.LocalID, p.Name, p.Price, p.CategoryID, p.Stock, p.ImagePath, boolToInt(p.IsActive), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveProduct(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("failed to remove product: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProduct(ctx context.Context, localID int64) (*models.Product, error) {
	query := `SELECT id, name, price, category_id, stock, image_path, is_active, updated_at FROM products WHERE id = ?`
	var (
		p         models.Product
		isActive  int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, localID).Scan(
		&p.LocalID, &p.Name, &p.Price, &p.CategoryID, &p.Stock, &p.ImagePath, &isActive, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select product: %w", err)
	}
	p.IsActive = isActive != 0
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListActiveProducts(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT id, name, price, category_id, stock, image_path, is_active, updated_at FROM products WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	defer rows.Close()

	var result []*models.Product
	for rows.Next() {
		var (
			p         models.Product
			isActive  int
			updatedAt string
		)
		if err := rows.Scan(&p.LocalID, &p.Name, &p.Price, &p.CategoryID, &p.Stock, &p.ImagePath, &isActive, &updatedAt); err != nil {
			return nil, err
		}
		p.IsActive = isActive != 0
		p.UpdatedAt = parseTime(updatedAt)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) AdjustStock(ctx context.Context, localID int64, delta float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		delta, formatTime(time.Now()), localID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpsertCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, name, is_active, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, c.LocalID, c.Name, boolToInt(c.IsActive), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveCategory(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("failed to remove category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListActiveCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_active, updated_at FROM categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var (
			c         models.Category
			isActive  int
			updatedAt string
		)
		if err := rows.Scan(&c.LocalID, &c.Name, &isActive, &updatedAt); err != nil {
			return nil, err
		}
		c.IsActive = isActive != 0
		c.UpdatedAt = parseTime(updatedAt)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) UpsertMenu(ctx context.Context, m *models.Menu) error {
	query := `
		INSERT INTO menus (id, name, price, image_path, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			image_path = excluded.image_path,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		m.LocalID, m.Name, m.Price, m.ImagePath, boolToInt(m.IsActive), formatTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert menu: %w", err)
	}

	// Children are replaced wholesale, matching the server's behavior.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_components WHERE menu_id = ?`, m.LocalID); err != nil {
		return fmt.Errorf("failed to clear menu components: %w", err)
	}
	for _, comp := range m.Components {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO menu_components (menu_id, name, quantity) VALUES (?, ?, ?)`,
			m.LocalID, comp.Name, comp.Quantity); err != nil {
			return fmt.Errorf("failed to insert menu component: %w", err)
		}
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_allowed_products WHERE menu_id = ?`, m.LocalID); err != nil {
		return fmt.Errorf("failed to clear allowed products: %w", err)
	}
	for _, productID := range m.AllowedProducts {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO menu_allowed_products (menu_id, product_id) VALUES (?, ?)`,
			m.LocalID, productID); err != nil {
			return fmt.Errorf("failed to insert allowed product: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) RemoveMenu(ctx context.Context, localID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_components WHERE menu_id = ?`, localID); err != nil {
		return fmt.Errorf("failed to remove menu components: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_allowed_products WHERE menu_id = ?`, localID); err != nil {
		return fmt.Errorf("failed to remove allowed products: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, localID); err != nil {
		return fmt.Errorf("failed to remove menu: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetMenu(ctx context.Context, localID int64) (*models.Menu, error) {
	var (
		m         models.Menu
		isActive  int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, image_path, is_active, updated_at FROM menus WHERE id = ?`, localID).
		Scan(&m.LocalID, &m.Name, &m.Price, &m.ImagePath, &isActive, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select menu: %w", err)
	}
	m.IsActive = isActive != 0
	m.UpdatedAt = parseTime(updatedAt)

	if err := r.loadMenuChildren(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteRepository) ListActiveMenus(ctx context.Context) ([]*models.Menu, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, image_path, is_active, updated_at FROM menus WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select menus: %w", err)
	}
	defer rows.Close()

	var result []*models.Menu
	for rows.Next() {
		var (
			m         models.Menu
			isActive  int
			updatedAt string
		)
		if err := rows.Scan(&m.LocalID, &m.Name, &m.Price, &m.ImagePath, &isActive, &updatedAt); err != nil {
			return nil, err
		}
		m.IsActive = isActive != 0
		m.UpdatedAt = parseTime(updatedAt)
		result = append(result, &m)
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

func (r *SQLiteRepository) loadMenuChildren(ctx context.Context, m *models.Menu) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, quantity FROM menu_components WHERE menu_id = ?`, m.LocalID)
	if err != nil {
		return fmt.Errorf("failed to select menu components: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var comp models.MenuComponent
		if err := rows.Scan(&comp.Name, &comp.Quantity); err != nil {
			return err
		}
		m.Components = append(m.Components, comp)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	productRows, err := r.db.QueryContext(ctx,
		`SELECT product_id FROM menu_allowed_products WHERE menu_id = ?`, m.LocalID)
	if err != nil {
		return fmt.Errorf("failed to select allowed products: %w", err)
	}
	defer productRows.Close()
	for productRows.Next() {
		var productID int64
		if err := productRows.Scan(&productID); err != nil {
			return err
		}
		m.AllowedProducts = append(m.AllowedProducts, productID)
	}
	return productRows.Err()
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, name, role, pin_hash, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			pin_hash = excluded.pin_hash,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		u.LocalID, u.Name, u.Role, u.PinHash, boolToInt(u.IsActive), formatTime(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveUser(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, localID int64) (*models.User, error) {
	var (
		u         models.User
		isActive  int
		updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, pin_hash, is_active, updated_at FROM users WHERE id = ?`, localID).
		Scan(&u.LocalID, &u.Name, &u.Role, &u.PinHash, &isActive, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	u.IsActive = isActive != 0
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

func (r *SQLiteRepository) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, role, pin_hash, is_active, updated_at FROM users WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		var (
			u         models.User
			isActive  int
			updatedAt string
		)
		if err := rows.Scan(&u.LocalID, &u.Name, &u.Role, &u.PinHash, &isActive, &updatedAt); err != nil {
			return nil, err
		}
		u.IsActive = isActive != 0
		u.UpdatedAt = parseTime(updatedAt)
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MaxID(ctx context.Context) (int64, error) {
	query := `
		SELECT MAX(id) FROM (
			SELECT COALESCE(MAX(id), 0) AS id FROM products
			UNION ALL SELECT COALESCE(MAX(id), 0) FROM categories
			UNION ALL SELECT COALESCE(MAX(id), 0) FROM menus
			UNION ALL SELECT COALESCE(MAX(id), 0) FROM users
		)
	`
	var max int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to select max id: %w", err)
	}
	return max, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
