package store

import "time"

// City is a city prices are scraped for
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a scraped product; Icon holds the raw image bytes
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon []byte `json:"-"`
}

// Price is the current price of a product in a city.
// Label is the price text as the listing showed it, empty if unknown.
type Price struct {
	ID        int64     `json:"id"`
	Value     string    `json:"price"`
	Label     string    `json:"label,omitempty"`
	ProductID int64     `json:"product_id"`
	CityID    int64     `json:"city_id"`
	Date      time.Time `json:"date"`
}

// HistoryEntry is one recorded price transition.
// PriceID is the id the Price row had when the entry was written; that row
// may since have been replaced.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	PriceID   int64     `json:"price_id"`
	ProductID int64     `json:"product_id"`
	CityID    int64     `json:"city_id"`
	Value     string    `json:"price"`
	Label     string    `json:"label,omitempty"`
	Date      time.Time `json:"date"`
}

// ProductPrice is a product joined with its current price in one city
type ProductPrice struct {
	ProductID int64
	Name      string
	Icon      []byte
	Price     string
	Label     string
	CityID    int64
	Date      time.Time
}
