package crawler

import (
	"context"
	"io"
)

// Item is one product article scraped from a city listing page
type Item struct {
	Title     string `json:"title"`
	IconURL   string `json:"icon_url"`
	PriceText string `json:"price_text"`
	// Err is set when the article is missing an expected element; the other
	// fields hold whatever could be read.
	Err error `json:"-"`
}

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// FetchItems retrieves the product articles of one city listing
	FetchItems(ctx context.Context) ([]Item, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetCity returns the city the crawler scrapes
	GetCity() string
}

// Fetcher returns the rendered markup of a page, converted to UTF-8
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Selectors contains CSS selectors for the elements of a listing page
type Selectors struct {
	// Section matches the product sections of the page
	Section string
	// Article matches one product inside a section
	Article string
	// Image matches the product image; its title attribute is the product name
	Image string
	// Price matches the element holding the price text
	Price string
}

// DefaultSelectors returns the selectors of the supported listing layout
func DefaultSelectors() Selectors {
	return Selectors{
		Section: "main section",
		Article: "article",
		Image:   "img[title][src]",
		Price:   "div[class*='product-control-price']",
	}
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	City      string
	URL       string
	CacheKey  string
	BlockTime int
	Selectors Selectors
}
