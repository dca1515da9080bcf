package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForCityAddsField(t *testing.T) {
	t.Setenv("PRICETRACKER_ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForCity("Moscow").Info().Int("items", 3).Msg("city scraped")

	out := buf.String()
	assert.Contains(t, out, `"city":"Moscow"`)
	assert.Contains(t, out, `"items":3`)
	assert.Contains(t, out, "city scraped")
}

func TestLogErrorIncludesComponent(t *testing.T) {
	t.Setenv("PRICETRACKER_ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	LogError("store", errors.New("locked"), "record price for %s", "Pepperoni")

	out := buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, `"error":"locked"`)
	assert.Contains(t, out, "record price for Pepperoni")
}

func TestLevelFiltering(t *testing.T) {
	t.Setenv("PRICETRACKER_ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")
}

func TestWithFieldsAndError(t *testing.T) {
	t.Setenv("PRICETRACKER_ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForCity("Kazan").
		WithFields(Fields{"crawler": "listing:Kazan", "city_id": 7}).
		WithError(errors.New("database is locked")).
		Warn().Msg("City aborted")

	out := buf.String()
	assert.Contains(t, out, `"city":"Kazan"`)
	assert.Contains(t, out, `"crawler":"listing:Kazan"`)
	assert.Contains(t, out, `"city_id":7`)
	assert.Contains(t, out, `"error":"database is locked"`)
}
