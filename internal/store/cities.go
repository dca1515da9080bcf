package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertCity returns the id of the city named name, creating it if needed
func (s *Store) UpsertCity(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cities (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = excluded.name
		 RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert city %q: %w", name, err)
	}
	return id, nil
}

// ListCities returns every city ordered by name
func (s *Store) ListCities(ctx context.Context) ([]City, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// CityByName looks a city up by exact name
func (s *Store) CityByName(ctx context.Context, name string) (City, error) {
	var c City
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM cities WHERE name = $1`, name).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return City{}, ErrNotFound
	}
	if err != nil {
		return City{}, fmt.Errorf("city by name %q: %w", name, err)
	}
	return c, nil
}

// CityByID looks a city up by id
func (s *Store) CityByID(ctx context.Context, id int64) (City, error) {
	var c City
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM cities WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return City{}, ErrNotFound
	}
	if err != nil {
		return City{}, fmt.Errorf("city by id %d: %w", id, err)
	}
	return c, nil
}
