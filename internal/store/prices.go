package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LatestPrice returns the most recent price row for a product in a city
func (s *Store) LatestPrice(ctx context.Context, productID, cityID int64) (Price, error) {
	p := Price{ProductID: productID, CityID: cityID}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, price, label, date FROM prices
		 WHERE product_id = $1 AND city_id = $2
		 ORDER BY date DESC, id DESC
		 LIMIT 1`, productID, cityID).Scan(&p.ID, &p.Value, &p.Label, dateColumn{&p.Date})
	if errors.Is(err, sql.ErrNoRows) {
		return Price{}, ErrNotFound
	}
	if err != nil {
		return Price{}, fmt.Errorf("latest price for product %d city %d: %w", productID, cityID, err)
	}
	return p, nil
}

// RecordPrice replaces the current price of a product in a city and appends
// the new value to its history, in one transaction. label is the scraped text
// the value was read from.
func (s *Store) RecordPrice(ctx context.Context, productID, cityID int64, value, label string, date time.Time) (Price, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Price{}, fmt.Errorf("begin record price: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM prices WHERE product_id = $1 AND city_id = $2`, productID, cityID); err != nil {
		return Price{}, fmt.Errorf("delete prior price: %w", err)
	}

	p := Price{Value: value, Label: label, ProductID: productID, CityID: cityID, Date: Day(date)}
	day := formatDate(p.Date)

	if err := tx.QueryRowContext(ctx,
		`INSERT INTO prices (price, label, product_id, city_id, date) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		value, label, productID, cityID, day).Scan(&p.ID); err != nil {
		return Price{}, fmt.Errorf("insert price: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO price_history (price_id, product_id, city_id, price, label, date) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, productID, cityID, value, label, day); err != nil {
		return Price{}, fmt.Errorf("insert price history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Price{}, fmt.Errorf("commit record price: %w", err)
	}
	return p, nil
}

// PriceHistory returns the recorded values for a product in a city, oldest first
func (s *Store) PriceHistory(ctx context.Context, productID, cityID int64) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, price_id, product_id, city_id, price, label, date FROM price_history
		 WHERE product_id = $1 AND city_id = $2
		 ORDER BY date, id`, productID, cityID)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.PriceID, &h.ProductID, &h.CityID, &h.Value, &h.Label, dateColumn{&h.Date}); err != nil {
			return nil, fmt.Errorf("scan price history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}
	return history, nil
}

// ProductsByCity returns every product with a current price in the city,
// ordered by product name.
func (s *Store) ProductsByCity(ctx context.Context, cityID int64) ([]ProductPrice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.icon, pr.price, pr.label, pr.city_id, pr.date
		 FROM prices pr
		 JOIN products p ON p.id = pr.product_id
		 WHERE pr.city_id = $1
		   AND NOT EXISTS (
		       SELECT 1 FROM prices newer
		       WHERE newer.product_id = pr.product_id AND newer.city_id = pr.city_id
		         AND (newer.date > pr.date OR (newer.date = pr.date AND newer.id > pr.id)))
		 ORDER BY p.name, p.id`, cityID)
	if err != nil {
		return nil, fmt.Errorf("products by city %d: %w", cityID, err)
	}
	defer rows.Close()

	var out []ProductPrice
	for rows.Next() {
		var pp ProductPrice
		if err := rows.Scan(&pp.ProductID, &pp.Name, &pp.Icon, &pp.Price, &pp.Label, &pp.CityID, dateColumn{&pp.Date}); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		out = append(out, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("products by city %d: %w", cityID, err)
	}
	return out, nil
}
