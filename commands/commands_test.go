package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricetracker/internal/store"
	"sjsage522/pricetracker/services/cache"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prices.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date (sqlite)")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, err := run(t, "migrate")
	assert.Error(t, err)
}

func TestScrapeCommand(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/moscow":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<main><section>
				<article><img title="Пепперони" src="/icons/pepperoni.png">
				<div class="product-control-price">499 ₽</div></article>
				<article><img title="Морс" src="/icons/mors.png"></article>
			</section></main>`)
		case "/icons/pepperoni.png":
			w.Write(png)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	citiesFile := filepath.Join(dir, "cities.json")
	require.NoError(t, os.WriteFile(citiesFile, []byte(fmt.Sprintf(`{
		"Москва": %q,
		"Казань": %q,
	}`, server.URL+"/moscow", server.URL+"/kazan")), 0o644))

	dbPath := filepath.Join(dir, "prices.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("SCRAPE_DRIVER", "http")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MEMCACHE_ADDR", "")

	out, err := run(t, "scrape", "--cities", citiesFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Москва")
	assert.Contains(t, out, "Казань")
	assert.Contains(t, out, "1/2 cities failed")

	ctx := context.Background()
	s, err := store.Open(ctx, store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()

	city, err := s.CityByName(ctx, "Москва")
	require.NoError(t, err)
	rows, err := s.ProductsByCity(ctx, city.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Пепперони", rows[0].Name)
	assert.Equal(t, "499", rows[0].Price)
	assert.Equal(t, png, rows[0].Icon)

	// the failed city was never created
	_, err = s.CityByName(ctx, "Казань")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestServicesHealth(t *testing.T) {
	ctx := context.Background()

	services := &Services{Store: store.OpenMemory(t)}
	assert.NoError(t, services.Health(ctx))

	// nothing listens on port 1
	services.Cache = cache.NewMemcacheService("127.0.0.1:1")
	err := services.Health(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache:")
}
