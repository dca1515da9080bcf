package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	// Test if memcached is available
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	// Set a value
	err := mc.Set("listing:test", []byte("test_value"), 1*time.Second)
	assert.NoError(t, err)

	// Get the value
	value, err := mc.Get("listing:test")
	assert.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	// Delete the value
	assert.NoError(t, mc.Delete("listing:test"))
	assert.NoError(t, mc.Delete("listing:test"))

	// Try to get the deleted value
	_, err = mc.Get("listing:test")
	assert.ErrorIs(t, err, ErrMiss)
}
