package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricetracker/config"
	apperrors "sjsage522/pricetracker/pkg/errors"
)

// mockCacheService is a mock implementation of cache.CacheService for testing
type mockCacheService struct {
	data map[string][]byte
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{data: make(map[string][]byte)}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	if data, ok := m.data[key]; ok {
		return data, nil
	}
	return nil, io.EOF
}

func (m *mockCacheService) Set(key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCacheService) Delete(key string) error {
	delete(m.data, key)
	return nil
}

type fetcherFunc func(ctx context.Context, url string) (io.Reader, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (io.Reader, error) {
	return f(ctx, url)
}

const listingHTML = `<html><body><main>
<section>
  <article>
    <img title="Пепперони" src="/img/pepperoni.png">
    <div class="product-control-price">499 ₽</div>
  </article>
  <article>
    <img title="Сырная" src="https://cdn.example.com/cheese.png">
    <div class="sc-1 product-control-price-wrapper">
      349 ₽
      <span>449 ₽</span>
    </div>
  </article>
</section>
<section>
  <article>
    <picture>no image here</picture>
    <div class="product-control-price">199 ₽</div>
  </article>
  <article>
    <img title="Морс" src="/img/mors.png">
  </article>
</section>
</main></body></html>`

func TestListingCrawlerFetchItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	c := NewListingCrawler(CrawlerConfig{City: "Москва", URL: server.URL + "/moscow"}, HTTPFetcher{}, nil)
	items, err := c.FetchItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "Пепперони", items[0].Title)
	assert.Equal(t, server.URL+"/img/pepperoni.png", items[0].IconURL)
	assert.Equal(t, "499 ₽", items[0].PriceText)
	assert.NoError(t, items[0].Err)

	assert.Equal(t, "Сырная", items[1].Title)
	assert.Equal(t, "https://cdn.example.com/cheese.png", items[1].IconURL)
	assert.Equal(t, "349 ₽ 449 ₽", items[1].PriceText)

	assert.True(t, apperrors.Is(items[2].Err, apperrors.ErrorTypeMarkup))

	assert.Equal(t, "Морс", items[3].Title)
	assert.True(t, apperrors.Is(items[3].Err, apperrors.ErrorTypeMarkup))
}

func TestListingCrawlerFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewListingCrawler(CrawlerConfig{City: "Казань", URL: server.URL}, HTTPFetcher{}, nil)
	_, err := c.FetchItems(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNetwork))
}

func TestListingCrawlerRateLimitBlock(t *testing.T) {
	mockCache := newMockCacheService()
	calls := 0
	fetcher := fetcherFunc(func(ctx context.Context, url string) (io.Reader, error) {
		calls++
		return nil, errors.New("rate limited; retry after 60")
	})

	c := NewListingCrawler(CrawlerConfig{
		City:      "Казань",
		URL:       "https://example.com/kazan",
		CacheKey:  "test_rate_limited",
		BlockTime: 500,
	}, fetcher, mockCache)

	_, err := c.FetchItems(context.Background())
	assert.Error(t, err)
	assert.Contains(t, mockCache.data, "test_rate_limited")

	_, err = c.FetchItems(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocked for 500 seconds")
	assert.Equal(t, 1, calls)
}

func TestListingCrawlerCustomSelectors(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, url string) (io.Reader, error) {
		return strings.NewReader(`<ul class="grid"><li class="card">
			<img title="Квас" src="kvas.png"><b class="cost">89 ₽</b></li></ul>`), nil
	})

	c := NewListingCrawler(CrawlerConfig{
		City: "Омск",
		URL:  "https://shop.example/omsk/",
		Selectors: Selectors{
			Section: "ul.grid",
			Article: "li.card",
			Image:   "img[title]",
			Price:   "b.cost",
		},
	}, fetcher, nil)

	items, err := c.FetchItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://shop.example/omsk/kvas.png", items[0].IconURL)
	assert.Equal(t, "89 ₽", items[0].PriceText)
}

func TestCreateCrawlers(t *testing.T) {
	crawlers := CreateCrawlers([]config.CitySource{
		{Name: "Казань", URL: "https://example.com/kazan"},
		{Name: "Москва", URL: "https://example.com/moscow"},
	}, HTTPFetcher{}, nil)

	require.Len(t, crawlers, 2)
	assert.Equal(t, "Казань", crawlers[0].GetCity())
	assert.Equal(t, "ListingCrawler(Москва)", crawlers[1].GetName())
	assert.Equal(t, RateLimitKey("https://example.com/kazan"), crawlers[0].(*ListingCrawler).CacheKey)
}

func TestRateLimitKey(t *testing.T) {
	long := "https://dodopizza.ru/" + strings.Repeat("nizhniy-novgorod/", 30) + "?city=Нижний Новгород"
	key := RateLimitKey(long)

	assert.True(t, strings.HasPrefix(key, "rate_limited:"))
	assert.LessOrEqual(t, len(key), 250)
	assert.NotContains(t, key, " ")
	assert.Equal(t, key, RateLimitKey(long))
	assert.NotEqual(t, key, RateLimitKey("https://dodopizza.ru/kazan"))
}
