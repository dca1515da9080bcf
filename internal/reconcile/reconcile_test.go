package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricetracker/internal/store"
	apperrors "sjsage522/pricetracker/pkg/errors"
)

type iconStub struct {
	calls int
	data  []byte
	err   error
}

func (s *iconStub) FetchIcon(ctx context.Context, url string) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

func setup(t *testing.T) (*Reconciler, *store.Store, *iconStub) {
	t.Helper()
	s := store.OpenMemory(t)
	icons := &iconStub{data: []byte("\x89PNG\r\n\x1a\n")}
	return New(s, icons), s, icons
}

var (
	march1 = time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	march2 = march1.AddDate(0, 0, 1)
	march3 = march1.AddDate(0, 0, 2)
)

func TestResolveCityIsIdempotent(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	first, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	second, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cities, err := s.ListCities(ctx)
	require.NoError(t, err)
	assert.Len(t, cities, 1)
}

func TestEnsureProductFetchesIconOnce(t *testing.T) {
	r, s, icons := setup(t)
	ctx := context.Background()

	id, err := r.EnsureProduct(ctx, "Пепперони", "https://cdn.example/pepperoni.png")
	require.NoError(t, err)
	again, err := r.EnsureProduct(ctx, "Пепперони", "https://cdn.example/pepperoni.png")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, icons.calls)

	p, err := s.ProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, icons.data, p.Icon)
}

func TestEnsureProductIconFailure(t *testing.T) {
	r, s, icons := setup(t)
	ctx := context.Background()
	icons.err = errors.New("connection refused")

	_, err := r.EnsureProduct(ctx, "Пепперони", "https://cdn.example/pepperoni.png")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNetwork))

	_, found, err := s.ProductIDByName(ctx, "Пепперони")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReconcileUnchangedPriceIsIdempotent(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	cityID, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	productID, err := r.EnsureProduct(ctx, "Сырная", "https://cdn.example/cheese.png")
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, "299 ₽", productID, cityID, march1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, res.Outcome)
	assert.Equal(t, "", res.Previous)

	first := res.Price

	res, err = r.Reconcile(ctx, "299 ₽", productID, cityID, march2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)

	latest, err := s.LatestPrice(ctx, productID, cityID)
	require.NoError(t, err)
	assert.Equal(t, first, latest)

	history, err := s.PriceHistory(ctx, productID, cityID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReconcileChangeReplacesPrice(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	cityID, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	productID, err := r.EnsureProduct(ctx, "Сырная", "https://cdn.example/cheese.png")
	require.NoError(t, err)

	first, err := r.Reconcile(ctx, "199 ₽", productID, cityID, march1)
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, "249 ₽", productID, cityID, march2)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, res.Outcome)
	assert.Equal(t, "199", res.Previous)
	assert.Equal(t, "249", res.Price.Value)

	history, err := s.PriceHistory(ctx, productID, cityID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	latest, err := s.LatestPrice(ctx, productID, cityID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Price.ID, latest.ID)
	assert.Equal(t, "249", latest.Value)
}

func TestReconcileHistoryOrder(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	cityID, err := r.ResolveCity(ctx, "Казань")
	require.NoError(t, err)
	productID, err := r.EnsureProduct(ctx, "Додстер", "https://cdn.example/dodster.png")
	require.NoError(t, err)

	for _, step := range []struct {
		text string
		date time.Time
	}{
		{"189 ₽", march1},
		{"209 ₽", march2},
		{"199 ₽", march3},
	} {
		_, err := r.Reconcile(ctx, step.text, productID, cityID, step.date)
		require.NoError(t, err)
	}

	history, err := s.PriceHistory(ctx, productID, cityID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"189", "209", "199"}, []string{history[0].Value, history[1].Value, history[2].Value})
	assert.True(t, history[0].Date.Before(history[1].Date))
	assert.True(t, history[1].Date.Before(history[2].Date))
}

func TestReconcileCitiesAreIndependent(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	moscow, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	kazan, err := r.ResolveCity(ctx, "Казань")
	require.NoError(t, err)
	productID, err := r.EnsureProduct(ctx, "Сырная", "https://cdn.example/cheese.png")
	require.NoError(t, err)

	_, err = r.Reconcile(ctx, "299 ₽", productID, moscow, march1)
	require.NoError(t, err)
	res, err := r.Reconcile(ctx, "299 ₽", productID, kazan, march1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecorded, res.Outcome)

	history, err := s.PriceHistory(ctx, productID, moscow)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReconcileKeepsDiscountLabel(t *testing.T) {
	r, s, _ := setup(t)
	ctx := context.Background()

	cityID, err := r.ResolveCity(ctx, "Москва")
	require.NoError(t, err)
	productID, err := r.EnsureProduct(ctx, "Сырная", "https://cdn.example/cheese.png")
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, "349 ₽ 449 ₽", productID, cityID, march1)
	require.NoError(t, err)
	assert.Equal(t, "349", res.Price.Value)
	assert.Equal(t, "349 ₽ 449 ₽", res.Price.Label)

	latest, err := s.LatestPrice(ctx, productID, cityID)
	require.NoError(t, err)
	assert.Equal(t, "349 ₽ 449 ₽", latest.Label)
}

func TestReconcileRejectsEmptyPrice(t *testing.T) {
	r, _, _ := setup(t)

	_, err := r.Reconcile(context.Background(), "Нет в наличии", 1, 1, march1)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}
