package commands

import (
	"context"
	"fmt"

	"sjsage522/pricetracker/config"
	"sjsage522/pricetracker/internal/crawler"
	"sjsage522/pricetracker/internal/store"
	"sjsage522/pricetracker/logger"
	"sjsage522/pricetracker/services/cache"
	"sjsage522/pricetracker/services/publisher"
)

// Services holds all the initialized services
type Services struct {
	Store     *store.Store
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Fetcher   crawler.Fetcher

	rod *crawler.RodFetcher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.rod != nil {
		if err := s.rod.Close(); err != nil {
			logger.LogError("fetcher", err, "close browser")
		}
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			logger.LogError("store", err, "close database")
		}
	}
}

// Health checks the store and, when one is configured, the cache
func (s *Services) Health(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if p, ok := s.Cache.(cache.Pinger); ok {
		if err := p.Ping(); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

type serviceSet struct {
	publisher bool
	fetcher   bool
}

// initializeServices opens the store and the optional services a command uses.
// On error everything already opened is closed.
func initializeServices(ctx context.Context, cfg *config.Config, want serviceSet) (_ *Services, err error) {
	services := &Services{}
	defer func() {
		if err != nil {
			services.Cleanup()
		}
	}()

	services.Store, err = store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err = services.Store.Migrate(ctx); err != nil {
		return nil, err
	}
	logger.Info("Opened %s store", cfg.DatabaseDriver)

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	}

	if want.publisher {
		if cfg.RedisAddr == "" {
			services.Publisher = publisher.NopPublisher{}
		} else {
			redisPublisher := publisher.NewRedisPublisher(
				cfg.RedisAddr,
				cfg.RedisDB,
				cfg.RedisStream,
				cfg.RedisStreamMaxLength,
			)
			services.Publisher = redisPublisher
			if pingErr := redisPublisher.Ping(ctx); pingErr != nil {
				logger.Warn("Redis at %s is not reachable, price changes will not be published: %v", cfg.RedisAddr, pingErr)
			} else {
				logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
			}
		}
	}

	if want.fetcher {
		switch cfg.ScrapeDriver {
		case "rod":
			services.rod, err = crawler.NewRodFetcher(ctx, cfg.RodControlURL)
			if err != nil {
				return nil, err
			}
			services.Fetcher = services.rod
		default:
			services.Fetcher = crawler.HTTPFetcher{}
		}
	}

	return services, nil
}
