package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "sjsage522/pricetracker/pkg/errors"
	"sjsage522/pricetracker/services/cache"
)

// ListingCrawler scrapes one city listing page using configurable selectors
type ListingCrawler struct {
	BaseCrawler
	Selectors Selectors
}

// NewListingCrawler creates a new listing crawler
func NewListingCrawler(config CrawlerConfig, fetcher Fetcher, cacheSvc cache.CacheService) *ListingCrawler {
	selectors := config.Selectors
	if selectors == (Selectors{}) {
		selectors = DefaultSelectors()
	}

	return &ListingCrawler{
		BaseCrawler: BaseCrawler{
			City:      config.City,
			URL:       config.URL,
			CacheKey:  config.CacheKey,
			CacheSvc:  cacheSvc,
			BlockTime: time.Duration(config.BlockTime) * time.Second,
			Fetcher:   fetcher,
		},
		Selectors: selectors,
	}
}

// GetName returns the crawler's name for logging
func (c *ListingCrawler) GetName() string {
	return "ListingCrawler(" + c.City + ")"
}

// FetchItems fetches the listing and returns its articles in page order
func (c *ListingCrawler) FetchItems(ctx context.Context) ([]Item, error) {
	body, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, apperrors.NewNetwork(c.City, "fetch listing "+c.URL, err)
	}

	doc, err := c.createDocument(body)
	if err != nil {
		return nil, apperrors.NewNetwork(c.City, "read listing "+c.URL, err)
	}

	return c.ParseItems(doc), nil
}

// ParseItems extracts every product article of a parsed listing
func (c *ListingCrawler) ParseItems(doc *goquery.Document) []Item {
	var items []Item
	doc.Find(c.Selectors.Section).Each(func(_ int, section *goquery.Selection) {
		section.Find(c.Selectors.Article).Each(func(_ int, article *goquery.Selection) {
			items = append(items, c.processArticle(article))
		})
	})
	return items
}

// processArticle reads one product article
func (c *ListingCrawler) processArticle(s *goquery.Selection) Item {
	var item Item

	img := s.Find(c.Selectors.Image).First()
	if img.Length() == 0 {
		item.Err = apperrors.NewMarkup(c.City, "article has no product image")
		return item
	}
	item.Title = strings.TrimSpace(img.AttrOr("title", ""))
	item.IconURL = c.ResolveURL(img.AttrOr("src", ""))
	if item.Title == "" {
		item.Err = apperrors.NewMarkup(c.City, "product image has an empty title")
		return item
	}

	priceSel := s.Find(c.Selectors.Price).First()
	if priceSel.Length() == 0 {
		item.Err = apperrors.NewMarkup(c.City, fmt.Sprintf("article %q has no price element", item.Title))
		return item
	}
	item.PriceText = strings.Join(strings.Fields(priceSel.Text()), " ")

	return item
}
