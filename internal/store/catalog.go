// ABOUTME: Category and product store methods for the shop catalog
// ABOUTME: Products join their category name on read for storefront rendering

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateCategory creates a new category. Names are unique case-insensitively.
func (s *SQLiteStore) CreateCategory(ctx context.Context, cat *Category) error {
	query := `INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		cat.ID,
		cat.Name,
		cat.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("inserting category: %w", err)
	}

	s.logger.Info("created category", "id", cat.ID, "name", cat.Name)
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*Category, error) {
	query := `SELECT id, name, created_at FROM categories ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cats []*Category
	for rows.Next() {
		var cat Category
		var createdAtStr string

		if err := rows.Scan(&cat.ID, &cat.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		cat.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		cats = append(cats, &cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return cats, nil
}

// DeleteCategory deletes a category. Categories still referenced by products
// cannot be deleted.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("deleting category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("deleted category", "id", id)
	return nil
}

// CreateProduct creates a new product.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, description, price, stock, image_url, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.ImageURL,
		nullableString(p.CategoryID),
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	s.logger.Info("created product", "id", p.ID, "name", p.Name)
	return nil
}

// GetProduct retrieves a product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.image_url, p.category_id, c.name, p.created_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = ?
	`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// UpdateProduct updates a product's fields.
func (s *SQLiteStore) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, image_url = ?, category_id = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.ImageURL,
		nullableString(p.CategoryID),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteProduct deletes a product.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("deleted product", "id", id)
	return nil
}

// ListProducts returns all products, newest first, with category names joined.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.image_url, p.category_id, c.name, p.created_at
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		ORDER BY p.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for product scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var categoryID, categoryName sql.NullString
	var createdAtStr string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.ImageURL,
		&categoryID,
		&categoryName,
		&createdAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	p.CategoryID = categoryID.String
	p.CategoryName = categoryName.String
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &p, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
