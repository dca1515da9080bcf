// Package display builds the read-only view models of the browsing UI and
// JSON API from the store.
package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"time"

	"sjsage522/pricetracker/internal/price"
	"sjsage522/pricetracker/internal/store"
	"sjsage522/pricetracker/logger"
	"sjsage522/pricetracker/services/cache"
)

// Store is the read side of the store
type Store interface {
	ListCities(ctx context.Context) ([]store.City, error)
	CityByName(ctx context.Context, name string) (store.City, error)
	CityByID(ctx context.Context, id int64) (store.City, error)
	ListProducts(ctx context.Context) ([]store.Product, error)
	ProductByID(ctx context.Context, id int64) (store.Product, error)
	LatestPrice(ctx context.Context, productID, cityID int64) (store.Price, error)
	PriceHistory(ctx context.Context, productID, cityID int64) ([]store.HistoryEntry, error)
	ProductsByCity(ctx context.Context, cityID int64) ([]store.ProductPrice, error)
}

// SortOrder orders a listing by price
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSort maps a query value to a sort order; anything unknown means no sort
func ParseSort(s string) SortOrder {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s)
	default:
		return SortNone
	}
}

// ProductView is one row of a city listing
type ProductView struct {
	ProductID int64         `json:"product_id"`
	Name      string        `json:"name"`
	PriceHTML template.HTML `json:"price_html"`
	RawPrice  string        `json:"price"`
	Icon      price.Icon    `json:"icon"`
	HasIcon   bool          `json:"has_icon"`
	IconURI   template.URL  `json:"-"`
	CityID    int64         `json:"city_id"`
}

// HistoryPoint is one entry of a price history
type HistoryPoint struct {
	Date      time.Time     `json:"date"`
	Price     string        `json:"price"`
	PriceHTML template.HTML `json:"price_html"`
}

// HistoryView is a product's price history in one city
type HistoryView struct {
	ProductID    int64          `json:"product_id"`
	Name         string         `json:"name"`
	Icon         price.Icon     `json:"icon"`
	HasIcon      bool           `json:"has_icon"`
	IconURI      template.URL   `json:"-"`
	City         store.City     `json:"city"`
	CurrentPrice string         `json:"current_price,omitempty"`
	CurrentHTML  template.HTML  `json:"current_price_html,omitempty"`
	Entries      []HistoryPoint `json:"history"`
}

// Service builds view models, caching listings when a cache is configured
type Service struct {
	store Store
	cache cache.CacheService
	ttl   time.Duration
}

// New creates a display service. cacheSvc may be nil.
func New(s Store, cacheSvc cache.CacheService, ttl time.Duration) *Service {
	return &Service{store: s, cache: cacheSvc, ttl: ttl}
}

// Cities returns every city ordered by name
func (s *Service) Cities(ctx context.Context) ([]store.City, error) {
	return s.store.ListCities(ctx)
}

// CityByName looks a city up by name
func (s *Service) CityByName(ctx context.Context, name string) (store.City, error) {
	return s.store.CityByName(ctx, name)
}

// CityByID looks a city up by id
func (s *Service) CityByID(ctx context.Context, id int64) (store.City, error) {
	return s.store.CityByID(ctx, id)
}

// Products returns every product name ordered by name
func (s *Service) Products(ctx context.Context) ([]store.Product, error) {
	return s.store.ListProducts(ctx)
}

// maxCacheItem stays under memcached's default 1 MB item size
const maxCacheItem = 1000 << 10

func listingKey(cityID int64, order SortOrder) string {
	if order == SortNone {
		order = "none"
	}
	return fmt.Sprintf("listing:%d:%s", cityID, order)
}

func iconKey(productID int64) string {
	return fmt.Sprintf("icon:%d", productID)
}

// ProductsForCity returns the current listing of a city
func (s *Service) ProductsForCity(ctx context.Context, cityID int64, order SortOrder) ([]ProductView, error) {
	key := listingKey(cityID, order)
	if views, ok := s.cached(ctx, key); ok {
		return views, nil
	}

	rows, err := s.store.ProductsByCity(ctx, cityID)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(rows))
	for _, row := range rows {
		v := ProductView{
			ProductID: row.ProductID,
			Name:      row.Name,
			PriceHTML: price.Render(row.Price, row.Label),
			RawPrice:  row.Price,
			CityID:    row.CityID,
		}
		v.Icon, v.HasIcon = price.EncodeIcon(row.Icon)
		v.IconURI = v.Icon.DataURI()
		views = append(views, v)
	}
	SortViews(views, order)

	s.remember(key, views)
	return views, nil
}

// SortViews orders a listing numerically by stored price, ties by name.
// Rows whose price is not a number go last.
func SortViews(views []ProductView, order SortOrder) {
	if order == SortNone {
		return
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, aok := price.Value(views[i].RawPrice)
		b, bok := price.Value(views[j].RawPrice)
		switch {
		case aok != bok:
			return aok
		case a != b && order == SortDesc:
			return a > b
		case a != b:
			return a < b
		default:
			return views[i].Name < views[j].Name
		}
	})
}

// PriceHistory returns the history of a product in a city.
// It returns store.ErrNotFound for an unknown product or city.
func (s *Service) PriceHistory(ctx context.Context, productID, cityID int64) (HistoryView, error) {
	product, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return HistoryView{}, err
	}
	city, err := s.store.CityByID(ctx, cityID)
	if err != nil {
		return HistoryView{}, err
	}

	hv := HistoryView{ProductID: product.ID, Name: product.Name, City: city}
	hv.Icon, hv.HasIcon = price.EncodeIcon(product.Icon)
	hv.IconURI = hv.Icon.DataURI()

	current, err := s.store.LatestPrice(ctx, productID, cityID)
	switch {
	case err == nil:
		hv.CurrentPrice = current.Value
		hv.CurrentHTML = price.Render(current.Value, current.Label)
	case !errors.Is(err, store.ErrNotFound):
		return HistoryView{}, err
	}

	entries, err := s.store.PriceHistory(ctx, productID, cityID)
	if err != nil {
		return HistoryView{}, err
	}
	hv.Entries = make([]HistoryPoint, 0, len(entries))
	for _, e := range entries {
		hv.Entries = append(hv.Entries, HistoryPoint{
			Date:      e.Date,
			Price:     e.Value,
			PriceHTML: price.Render(e.Value, e.Label),
		})
	}
	return hv, nil
}

// cached returns a cached listing. Listings are cached without icon bytes;
// icons come from their own entries or, failing that, from the store.
func (s *Service) cached(ctx context.Context, key string) ([]ProductView, bool) {
	data, ok := s.get(key)
	if !ok {
		return nil, false
	}

	var views []ProductView
	if err := json.Unmarshal(data, &views); err != nil {
		logger.ForComponent("cache").Warn().Err(err).Str("key", key).Msg("Discarding undecodable listing cache entry")
		return nil, false
	}
	for i := range views {
		if !views[i].HasIcon {
			continue
		}
		icon, err := s.icon(ctx, views[i].ProductID)
		if err != nil {
			logger.ForComponent("cache").Warn().Err(err).Int64("product_id", views[i].ProductID).Msg("Icon lookup failed")
			return nil, false
		}
		views[i].Icon, views[i].HasIcon = icon, icon.Base64 != ""
		views[i].IconURI = icon.DataURI()
	}
	return views, true
}

// icon returns the encoded icon of a product, caching it when it fits
func (s *Service) icon(ctx context.Context, productID int64) (price.Icon, error) {
	key := iconKey(productID)
	if data, ok := s.get(key); ok {
		var icon price.Icon
		if err := json.Unmarshal(data, &icon); err == nil {
			return icon, nil
		}
	}

	product, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return price.Icon{}, err
	}
	icon, _ := price.EncodeIcon(product.Icon)
	s.set(key, icon)
	return icon, nil
}

func (s *Service) remember(key string, views []ProductView) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}

	stripped := make([]ProductView, len(views))
	for i, v := range views {
		if v.HasIcon {
			s.set(iconKey(v.ProductID), v.Icon)
		}
		v.Icon, v.IconURI = price.Icon{}, ""
		stripped[i] = v
	}
	s.set(key, stripped)
}

func (s *Service) get(key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.ForComponent("cache").Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	return data, true
}

// set stores v as JSON. Values too large for one cache item are not cached.
func (s *Service) set(key string, v interface{}) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if len(data) > maxCacheItem {
		logger.ForComponent("cache").Debug().Str("key", key).Int("bytes", len(data)).Msg("Value too large to cache")
		return
	}
	if err := s.cache.Set(key, data, s.ttl); err != nil {
		logger.ForComponent("cache").Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
