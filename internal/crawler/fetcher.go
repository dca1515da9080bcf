package crawler

import (
	"context"
	"io"

	"sjsage522/pricetracker/helpers"
)

// HTTPFetcher fetches pages and icons with plain HTTP requests
type HTTPFetcher struct{}

// Fetch implements Fetcher
func (HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	return helpers.FetchWithRandomHeaders(ctx, url)
}

// FetchIcon downloads an image
func (HTTPFetcher) FetchIcon(ctx context.Context, url string) ([]byte, error) {
	return helpers.FetchBytes(ctx, url)
}
