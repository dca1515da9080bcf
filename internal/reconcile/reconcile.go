// Package reconcile decides which scraped prices are recorded.
//
// A scraped price is compared with the latest stored price for the same
// product and city. An equal value is discarded; a different (or first)
// value replaces the current price and is appended to the history.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sjsage522/pricetracker/internal/price"
	"sjsage522/pricetracker/internal/store"
	apperrors "sjsage522/pricetracker/pkg/errors"
)

// Store is the subset of the store the reconciler writes through
type Store interface {
	UpsertCity(ctx context.Context, name string) (int64, error)
	ProductIDByName(ctx context.Context, name string) (int64, bool, error)
	InsertProduct(ctx context.Context, name string, icon []byte) (int64, error)
	LatestPrice(ctx context.Context, productID, cityID int64) (store.Price, error)
	RecordPrice(ctx context.Context, productID, cityID int64, value, label string, date time.Time) (store.Price, error)
}

// IconFetcher downloads product icons
type IconFetcher interface {
	FetchIcon(ctx context.Context, url string) ([]byte, error)
}

// IconFetcherFunc adapts a function to IconFetcher
type IconFetcherFunc func(ctx context.Context, url string) ([]byte, error)

// FetchIcon calls f
func (f IconFetcherFunc) FetchIcon(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Outcome is what happened to one scraped price
type Outcome string

const (
	// OutcomeRecorded means a new current price and history entry were written
	OutcomeRecorded Outcome = "recorded"
	// OutcomeUnchanged means the value equalled the latest stored one
	OutcomeUnchanged Outcome = "unchanged"
)

// Result describes one reconciliation
type Result struct {
	Outcome Outcome
	Price   store.Price
	// Previous is the replaced value, empty for a first sighting
	Previous string
}

// Reconciler resolves identities and records price changes
type Reconciler struct {
	store Store
	icons IconFetcher
}

// New creates a new reconciler
func New(s Store, icons IconFetcher) *Reconciler {
	return &Reconciler{store: s, icons: icons}
}

// ResolveCity returns the id of the named city, creating it on first use
func (r *Reconciler) ResolveCity(ctx context.Context, name string) (int64, error) {
	id, err := r.store.UpsertCity(ctx, name)
	if err != nil {
		return 0, apperrors.NewDatabase(name, "resolve city", err)
	}
	return id, nil
}

// ResolveProduct looks a product up by exact name
func (r *Reconciler) ResolveProduct(ctx context.Context, name string) (int64, bool, error) {
	id, found, err := r.store.ProductIDByName(ctx, name)
	if err != nil {
		return 0, false, apperrors.NewDatabase("", fmt.Sprintf("resolve product %q", name), err)
	}
	return id, found, nil
}

// EnsureProduct returns the id of the named product. An unknown product is
// created with the icon downloaded from iconURL; a failed download is
// returned as a network error and nothing is written.
func (r *Reconciler) EnsureProduct(ctx context.Context, name, iconURL string) (int64, error) {
	id, found, err := r.ResolveProduct(ctx, name)
	if err != nil || found {
		return id, err
	}

	icon, err := r.icons.FetchIcon(ctx, iconURL)
	if err != nil {
		return 0, apperrors.NewNetwork("", fmt.Sprintf("fetch icon for %q", name), err)
	}

	id, err = r.store.InsertProduct(ctx, name, icon)
	if err != nil {
		return 0, apperrors.NewDatabase("", fmt.Sprintf("insert product %q", name), err)
	}
	return id, nil
}

// Reconcile normalizes scraped price text and records it for the product and
// city if it differs from the latest stored value. The amounts of the text are
// kept as the price label. date is truncated to the calendar day.
func (r *Reconciler) Reconcile(ctx context.Context, priceText string, productID, cityID int64, date time.Time) (Result, error) {
	value := price.Normalize(priceText)
	if value == "" {
		return Result{}, apperrors.NewValidation("", fmt.Sprintf("price text %q has no digits", priceText))
	}

	var previous string
	latest, err := r.store.LatestPrice(ctx, productID, cityID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Result{}, apperrors.NewDatabase("", "read latest price", err)
	case latest.Value == value:
		return Result{Outcome: OutcomeUnchanged, Price: latest, Previous: latest.Value}, nil
	default:
		previous = latest.Value
	}

	recorded, err := r.store.RecordPrice(ctx, productID, cityID, value, price.Label(priceText), date)
	if err != nil {
		return Result{}, apperrors.NewDatabase("", "record price", err)
	}
	return Result{Outcome: OutcomeRecorded, Price: recorded, Previous: previous}, nil
}
