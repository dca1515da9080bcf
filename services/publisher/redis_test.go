package publisher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	const stream = "test_stream_pricetracker"

	publisher := NewRedisPublisher("localhost:6379", 0, stream, 2)
	defer publisher.Close()

	// Test if Redis is available
	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	for _, price := range []string{"199", "249", "299"} {
		err := publisher.Publish(ctx, PriceChange{
			City:      "Москва",
			CityID:    1,
			Product:   "Сырная",
			ProductID: 7,
			Price:     price,
			Date:      "2024-03-01",
		})
		require.NoError(t, err)
	}

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Москва", entries[0].Values["city"])

	var change PriceChange
	require.NoError(t, json.Unmarshal([]byte(entries[2].Values[payloadField].(string)), &change))
	assert.Equal(t, "299", change.Price)
	assert.Equal(t, int64(7), change.ProductID)

	require.NoError(t, publisher.TrimStreams(ctx))
	length, err := client.XLen(ctx, stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), PriceChange{}))
	assert.NoError(t, p.TrimStreams(context.Background()))
	assert.NoError(t, p.Close())
}
