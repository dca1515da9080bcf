package crawler

import (
	"crypto/sha256"
	"encoding/hex"

	"sjsage522/pricetracker/config"
	"sjsage522/pricetracker/logger"
	"sjsage522/pricetracker/services/cache"
)

// rateLimitBlock is how long a city is skipped after its site rate limited us
const rateLimitBlock = 500

// RateLimitKey is the cache key blocking a listing URL after a rate limit.
// The URL is hashed to stay within memcache's key length and character rules.
func RateLimitKey(listingURL string) string {
	sum := sha256.Sum256([]byte(listingURL))
	return "rate_limited:" + hex.EncodeToString(sum[:])
}

// CreateCrawlers creates one listing crawler per city of the cities file
func CreateCrawlers(cities []config.CitySource, fetcher Fetcher, cacheSvc cache.CacheService) []Crawler {
	crawlers := make([]Crawler, 0, len(cities))
	for _, city := range cities {
		crawlers = append(crawlers, NewListingCrawler(CrawlerConfig{
			City:      city.Name,
			URL:       city.URL,
			CacheKey:  RateLimitKey(city.URL),
			BlockTime: rateLimitBlock,
			Selectors: DefaultSelectors(),
		}, fetcher, cacheSvc))
	}

	logger.Debug("Created %d crawlers", len(crawlers))
	return crawlers
}
