package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricetracker/services/cache"
)

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	City      string
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Fetcher   Fetcher
}

// fetchWithCache fetches the listing unless the site recently rate limited us
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (io.Reader, error) {
	// Check if the crawler is rate limited
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return nil, fmt.Errorf("%s: blocked for %d seconds after a rate limit", c.CacheKey, c.BlockTime/time.Second)
		}
	}

	body, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		if c.CacheSvc != nil && c.CacheKey != "" && c.BlockTime > 0 && strings.HasPrefix(err.Error(), "rate limited") {
			c.CacheSvc.Set(c.CacheKey, []byte(fmt.Sprintf("%d", c.BlockTime/time.Second)), c.BlockTime)
		}
		return nil, err
	}

	return body, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse listing HTML: %w", err)
	}
	return doc, nil
}

// ResolveURL resolves a possibly relative link against the listing URL
func (c *BaseCrawler) ResolveURL(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	base, err := url.Parse(c.URL)
	if err != nil {
		return link
	}
	return base.ResolveReference(ref).String()
}

// GetCity returns the city the crawler scrapes
func (c *BaseCrawler) GetCity() string {
	return c.City
}
