package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProductIDByName returns the id of the first product with exactly this name
func (s *Store) ProductIDByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM products WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("product by name %q: %w", name, err)
	}
	return id, true, nil
}

// InsertProduct creates a product and returns its id
func (s *Store) InsertProduct(ctx context.Context, name string, icon []byte) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO products (name, icon) VALUES ($1, $2) RETURNING id`, name, icon).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product %q: %w", name, err)
	}
	return id, nil
}

// ProductByID returns a product including its icon
func (s *Store) ProductByID(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon FROM products WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("product by id %d: %w", id, err)
	}
	return p, nil
}

// ListProducts returns every product ordered by name, without icons
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
