package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/dealcard/internal/affiliate"
	"github.com/IshaanNene/dealcard/internal/card"
	"github.com/IshaanNene/dealcard/internal/category"
	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/fetcher"
	"github.com/IshaanNene/dealcard/internal/observability"
	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/resolver"
	"github.com/IshaanNene/dealcard/internal/scraper"
	"github.com/IshaanNene/dealcard/internal/status"
	"github.com/IshaanNene/dealcard/internal/storage"
)

// app holds the wired pipeline components for one command.
type app struct {
	cfg        *config.Config
	registry   *platform.Registry
	resolver   *resolver.Resolver
	scraper    *scraper.Scraper
	converter  *affiliate.Converter
	classifier *category.Classifier
	processor  *pipeline.Processor
	metrics    *observability.Metrics

	closers []func() error
	logger  *slog.Logger
}

// newApp wires every stage. The content store is opened only when
// withStore is set.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, withStore bool) (*app, error) {
	registry := platform.DefaultRegistry()
	a := &app{
		cfg:        cfg,
		registry:   registry,
		resolver:   resolver.New(cfg.Resolver, logger),
		converter:  affiliate.NewConverter(cfg.Affiliate, logger, affiliate.WithRegistry(registry)),
		classifier: category.Default(),
		metrics:    observability.NewMetrics(logger),
		logger:     logger,
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	a.closers = append(a.closers, httpFetcher.Close)

	opts := []scraper.Option{scraper.WithTimeout(cfg.Fetcher.RequestTimeout)}
	if cfg.Browser.Enabled {
		browser, err := fetcher.NewBrowserFetcher(cfg, logger)
		if err != nil {
			logger.Warn("browser unavailable, using http for all platforms", "error", err)
		} else {
			a.closers = append(a.closers, browser.Close)
			opts = append(opts, scraper.WithBrowser(browser))
		}
	}
	a.scraper = scraper.New(a.registry, httpFetcher, logger, opts...)

	st, err := status.New(ctx, cfg.Status, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create status store: %w", err)
	}
	a.closers = append(a.closers, st.Close)

	var store storage.ContentStore
	if withStore {
		store, err = storage.New(ctx, cfg.Storage, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create content store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
	}

	a.processor = pipeline.NewProcessor(pipeline.Deps{
		Resolver:   a.resolver,
		Detector:   a.registry,
		Scraper:    a.scraper,
		Converter:  a.converter,
		Classifier: a.classifier,
		Assembler:  card.NewAssembler(card.WithDefaultImage(cfg.Card.DefaultImageURL)),
		Status:     st,
		Store:      store,
		Metrics:    a.metrics,
	}, cfg.Pipeline, logger,
		pipeline.WithBulk(cfg.Bulk),
		pipeline.WithDefaultPage(cfg.Card.DefaultPage),
	)

	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
