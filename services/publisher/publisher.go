package publisher

import "context"

// PriceChange is the event published for every recorded price change
type PriceChange struct {
	City      string `json:"city"`
	CityID    int64  `json:"city_id"`
	Product   string `json:"product"`
	ProductID int64  `json:"product_id"`
	Price     string `json:"price"`
	// Previous is empty for the first price of a product in a city
	Previous string `json:"previous,omitempty"`
	Date     string `json:"date"`
}

// Publisher represents a service for publishing price changes
type Publisher interface {
	// Publish publishes a price change to the stream
	Publish(ctx context.Context, change PriceChange) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// NopPublisher discards every event. It is used when no Redis is configured.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, PriceChange) error { return nil }

// TrimStreams implements Publisher
func (NopPublisher) TrimStreams(context.Context) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() error { return nil }
