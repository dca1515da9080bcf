package commands

import (
	"time"

	"github.com/spf13/cobra"

	"sjsage522/pricetracker/config"
	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/internal/crawler"
	"sjsage522/pricetracker/internal/reconcile"
	"sjsage522/pricetracker/logger"
	"sjsage522/pricetracker/services/worker"
)

var (
	scrapeCitiesFile string
	scrapeInterval   time.Duration
	scrapeQuiet      bool
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCitiesFile, "cities", "", "cities file (default $CITIES_FILE)")
	scrapeCmd.Flags().DurationVar(&scrapeInterval, "interval", 0, "repeat the batch at this interval (default $SCRAPE_INTERVAL_SECONDS, 0 runs once)")
	scrapeCmd.Flags().BoolVarP(&scrapeQuiet, "quiet", "q", false, "do not print the batch report")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes every city of the cities file and records price changes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		citiesFile := cfg.CitiesFile
		if scrapeCitiesFile != "" {
			citiesFile = scrapeCitiesFile
		}
		interval := cfg.ScrapeInterval
		if cmd.Flags().Changed("interval") {
			interval = scrapeInterval
		}

		cities, err := config.LoadCities(citiesFile)
		if err != nil {
			return err
		}

		services, err := initializeServices(ctx, cfg, serviceSet{publisher: true, fetcher: true})
		if err != nil {
			return err
		}
		defer services.Cleanup()

		crawlers := crawler.CreateCrawlers(cities, services.Fetcher, services.Cache)
		reconciler := reconcile.New(services.Store, crawler.HTTPFetcher{})

		logger.Default.Info().
			Str("environment", cfg.Environment).
			Str("driver", cfg.ScrapeDriver).
			Int("cities", len(crawlers)).
			Dur("interval", interval).
			Msg("Starting scrape")

		w := worker.NewWorker(
			crawlers,
			reconciler,
			services.Publisher,
			helpers.NewLogger(cfg.ErrorLogFile),
			interval,
		)

		err = w.Start(ctx, func(report *worker.Report) {
			if !scrapeQuiet {
				report.Render(cmd.OutOrStdout())
			}
		})
		if ctx.Err() != nil {
			logger.Info("Scrape interrupted")
			return nil
		}
		return err
	},
}
