package worker

import (
	"context"
	"fmt"
	"time"

	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/internal/crawler"
	"sjsage522/pricetracker/internal/price"
	"sjsage522/pricetracker/internal/reconcile"
	"sjsage522/pricetracker/internal/store"
	"sjsage522/pricetracker/logger"
	apperrors "sjsage522/pricetracker/pkg/errors"
	"sjsage522/pricetracker/services/publisher"
)

// Worker runs the scrape batch: every city in turn, every item in page order
type Worker struct {
	crawlers      []crawler.Crawler
	reconciler    *reconcile.Reconciler
	publisher     publisher.Publisher
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
	now           func() time.Time
}

// NewWorker creates a new worker. A zero crawlInterval makes Start run once.
func NewWorker(
	crawlers []crawler.Crawler,
	reconciler *reconcile.Reconciler,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	return &Worker{
		crawlers:      crawlers,
		reconciler:    reconciler,
		publisher:     pub,
		logger:        logger,
		crawlInterval: crawlInterval,
		now:           time.Now,
	}
}

// Start runs batches until ctx is cancelled, handing each report to onReport.
// With no crawl interval it runs a single batch.
func (w *Worker) Start(ctx context.Context, onReport func(*Report)) error {
	for {
		report := w.RunOnce(ctx)
		if onReport != nil {
			onReport(report)
		}

		if w.crawlInterval <= 0 {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce scrapes every city once and then trims the change stream
func (w *Worker) RunOnce(ctx context.Context) *Report {
	report := &Report{Started: w.now()}

	for _, c := range w.crawlers {
		if ctx.Err() != nil {
			report.Cities = append(report.Cities, CityReport{City: c.GetCity(), Err: ctx.Err()})
			continue
		}
		report.Cities = append(report.Cities, w.processCity(ctx, c))
	}

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}

	report.Finished = w.now()
	w.logger.LogInfo("Batch finished in %s: %d recorded, %d unchanged, %d skipped, %d failed, %d/%d cities failed",
		report.Finished.Sub(report.Started),
		report.Total(StatusRecorded),
		report.Total(StatusUnchanged),
		report.Total(StatusSkipped),
		report.Total(StatusFailed),
		report.FailedCities(),
		len(report.Cities))
	return report
}

// processCity scrapes one city. A fetch or database error ends the city.
func (w *Worker) processCity(ctx context.Context, c crawler.Crawler) CityReport {
	city := c.GetCity()
	cr := CityReport{City: city}
	log := logger.ForCity(city).WithFields(logger.Fields{"crawler": c.GetName()})

	items, err := c.FetchItems(ctx)
	if err != nil {
		cr.Err = err
		w.logger.LogError(c.GetName(), err)
		return cr
	}

	cr.CityID, err = w.reconciler.ResolveCity(ctx, city)
	if err != nil {
		cr.Err = err
		w.logger.LogError(c.GetName(), err)
		return cr
	}
	log = log.WithField("city_id", cr.CityID)

	date := w.now()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			cr.Err = err
			return cr
		}

		result, err := w.processItem(ctx, cr.CityID, city, item, date)
		cr.Items = append(cr.Items, result)
		if err != nil {
			cr.Err = err
			w.logger.LogError(c.GetName(), err)
			log.WithError(err).Warn().
				Int("processed", len(cr.Items)).
				Int("remaining", len(items)-len(cr.Items)).
				Msg("City aborted")
			return cr
		}

		log.Debug().
			Str("product", result.Title).
			Str("price", result.Price).
			Str("status", string(result.Status)).
			Msg("Processed item")
	}

	log.Info().
		Int("items", len(cr.Items)).
		Int("recorded", cr.Count(StatusRecorded)).
		Msg("City scraped")
	return cr
}

// processItem reconciles one item. The returned error is non-nil only for
// failures that must end the city.
func (w *Worker) processItem(ctx context.Context, cityID int64, city string, item crawler.Item, date time.Time) (ItemResult, error) {
	result := ItemResult{Title: item.Title, Price: item.PriceText}

	if item.Err == nil && price.Normalize(item.PriceText) == "" {
		item.Err = apperrors.NewValidation(city, fmt.Sprintf("price text %q has no digits", item.PriceText))
	}
	if item.Err != nil {
		return itemFailure(result, item.Err)
	}

	productID, err := w.reconciler.EnsureProduct(ctx, item.Title, item.IconURL)
	if err != nil {
		return itemFailure(result, err)
	}

	res, err := w.reconciler.Reconcile(ctx, item.PriceText, productID, cityID, date)
	if err != nil {
		return itemFailure(result, err)
	}

	result.Price = res.Price.Value
	switch res.Outcome {
	case reconcile.OutcomeUnchanged:
		result.Status = StatusUnchanged
	case reconcile.OutcomeRecorded:
		result.Status = StatusRecorded
		w.publishChange(ctx, city, item.Title, res)
	}
	return result, nil
}

// itemFailure records err on result. Skippable errors skip the item, a
// failed icon download fails only the item, anything else ends the city.
func itemFailure(result ItemResult, err error) (ItemResult, error) {
	result.Reason = err.Error()
	if apperrors.IsSkippable(err) {
		result.Status = StatusSkipped
		return result, nil
	}

	result.Status = StatusFailed
	if apperrors.Is(err, apperrors.ErrorTypeNetwork) {
		return result, nil
	}
	return result, err
}

func (w *Worker) publishChange(ctx context.Context, city, product string, res reconcile.Result) {
	change := publisher.PriceChange{
		City:      city,
		CityID:    res.Price.CityID,
		Product:   product,
		ProductID: res.Price.ProductID,
		Price:     res.Price.Value,
		Previous:  res.Previous,
		Date:      store.Day(res.Price.Date).Format("2006-01-02"),
	}
	if err := w.publisher.Publish(ctx, change); err != nil {
		w.logger.LogError("Publisher", err)
	}
}
