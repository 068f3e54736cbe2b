package products

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const productColumns = `p.id, p.name, p.price, COALESCE(p.description, ''), COALESCE(p.category_id::text, ''),
	p.duration, p.is_popular, p.discount, COALESCE(p.image, ''), p.created_at, p.updated_at`

// ListProducts returns products matching the filter, sorted by name.
func (c *Conf) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p`, productColumns)

	var conds []string
	var args []any
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		conds = append(conds, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		conds = append(conds, fmt.Sprintf("p.category_id = (SELECT id FROM categories WHERE slug = $%d)", len(args)))
	}
	if f.PopularOnly {
		conds = append(conds, "p.is_popular = TRUE")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY p.name ASC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CategoryID,
			&p.Duration, &p.IsPopular, &p.Discount, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return out, nil
}

// GetProductByID fetches one product. sql.ErrNoRows passes through so callers
// can distinguish "not found".
func (c *Conf) GetProductByID(ctx context.Context, productID string) (Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1`, productColumns)

	var p Product
	err := c.db.QueryRowContext(ctx, query, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.CategoryID,
			&p.Duration, &p.IsPopular, &p.Discount, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// ListCategories returns all categories sorted by name.
func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, COALESCE(image, ''), created_at, updated_at
		FROM categories
		ORDER BY name ASC
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Image, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return out, nil
}

// GetCategoryBySlug fetches one category by its URL slug.
func (c *Conf) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	query := `
		SELECT id, name, slug, COALESCE(image, ''), created_at, updated_at
		FROM categories
		WHERE slug = $1
	`
	var cat Category
	err := c.db.QueryRowContext(ctx, query, slug).
		Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Image, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	return cat, nil
}
