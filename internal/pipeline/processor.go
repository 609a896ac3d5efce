// Package pipeline turns a raw product URL into a product card by running
// resolution, detection, scraping, normalisation, affiliate conversion,
// classification and assembly in order, and batches many URLs through it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/observability"
	"github.com/IshaanNene/dealcard/internal/status"
	"github.com/IshaanNene/dealcard/internal/storage"
	"github.com/IshaanNene/dealcard/internal/types"
)

// Resolver unwraps shortened links.
type Resolver interface {
	Resolve(ctx context.Context, raw string) types.ResolvedURL
}

// Detector classifies a resolved URL's platform.
type Detector interface {
	Detect(resolved types.ResolvedURL) types.PlatformInfo
}

// Scraper extracts product attributes from a resolved URL.
type Scraper interface {
	ScrapeWith(ctx context.Context, resolved types.ResolvedURL, info types.PlatformInfo) types.ScrapedProduct
}

// Converter rewrites a URL into its affiliate form.
type Converter interface {
	Convert(resolved types.ResolvedURL, info types.PlatformInfo) types.ConvertedLink
}

// Classifier assigns a category from product text.
type Classifier interface {
	Classify(name, description string) string
}

// Assembler builds the final card.
type Assembler interface {
	Assemble(scraped types.ScrapedProduct, link types.ConvertedLink, category string, info types.PlatformInfo, originalURL, targetPage string) types.ProductCard
}

// Deps are the stage implementations a Processor runs. Status, Store and
// Metrics are optional.
type Deps struct {
	Resolver   Resolver
	Detector   Detector
	Scraper    Scraper
	Converter  Converter
	Classifier Classifier
	Assembler  Assembler

	Status  status.Store
	Store   storage.ContentStore
	Metrics *observability.Metrics
}

// Options control a single run.
type Options struct {
	TargetPage string
	Save       bool
}

// Processor runs URLs through the card pipeline.
type Processor struct {
	deps        Deps
	normalize   *Chain
	timeout     time.Duration
	defaultPage string
	batchSize   int
	batchDelay  time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithBulk sets the batch size and inter-batch delay used by ProcessMany.
func WithBulk(cfg config.BulkConfig) Option {
	return func(p *Processor) {
		if cfg.BatchSize > 0 {
			p.batchSize = cfg.BatchSize
		}
		if cfg.BatchDelay >= 0 {
			p.batchDelay = cfg.BatchDelay
		}
	}
}

// WithDefaultPage sets the page used when a run names none.
func WithDefaultPage(page string) Option {
	return func(p *Processor) { p.defaultPage = page }
}

// WithChain replaces the product normalisation chain.
func WithChain(c *Chain) Option {
	return func(p *Processor) { p.normalize = c }
}

// NewProcessor creates a Processor over deps.
func NewProcessor(deps Deps, cfg config.PipelineConfig, logger *slog.Logger, opts ...Option) *Processor {
	if deps.Status == nil {
		deps.Status = status.NewMemoryStore()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(logger)
	}

	p := &Processor{
		deps:        deps,
		normalize:   DefaultChain(cfg.MaxNameLength, logger),
		timeout:     cfg.Timeout,
		defaultPage: storage.DefaultPage,
		batchSize:   3,
		batchDelay:  2 * time.Second,
		now:         time.Now,
		logger:      logger.With("component", "processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metrics returns the counters updated by this Processor.
func (p *Processor) Metrics() *observability.Metrics {
	return p.deps.Metrics
}

// ProcessURL runs one URL through every stage. It never panics and never
// returns an error; failures are reported on the result.
func (p *Processor) ProcessURL(ctx context.Context, rawURL string, opts Options) (result types.ProcessingResult) {
	start := p.now()
	m := p.deps.Metrics
	m.URLsProcessed.Add(1)
	m.ActiveRuns.Add(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	statusID, err := p.deps.Status.Begin(ctx, rawURL)
	if err != nil {
		p.logger.Warn("status begin failed", "url", rawURL, "error", err)
	}

	defer func() {
		if r := recover(); r != nil {
			m.PanicsRecovered.Add(1)
			p.logger.Error("pipeline panic", "url", rawURL, "panic", r)
			result = types.ProcessingResult{
				Success:     false,
				OriginalURL: rawURL,
				Error:       fmt.Sprintf("Processing failed: %v", r),
			}
		}

		elapsed := p.now().Sub(start).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
		result.ProcessingTime = elapsed
		m.ProcessingMillis.Add(elapsed)
		m.ActiveRuns.Add(-1)
		if result.Success {
			m.URLsSucceeded.Add(1)
		} else {
			m.URLsFailed.Add(1)
		}

		if statusID != "" {
			// The run's own deadline may have passed; record the outcome anyway.
			if err := p.deps.Status.Finish(context.WithoutCancel(ctx), statusID, result.Error); err != nil {
				p.logger.Warn("status finish failed", "url", rawURL, "error", err)
			}
		}
	}()

	return p.run(ctx, rawURL, opts)
}

func (p *Processor) run(ctx context.Context, rawURL string, opts Options) types.ProcessingResult {
	m := p.deps.Metrics
	targetPage := opts.TargetPage
	if targetPage == "" {
		targetPage = p.defaultPage
	}

	resolved := p.deps.Resolver.Resolve(ctx, rawURL)
	if resolved.ShortenerDetected {
		m.URLsResolved.Add(1)
	}

	info := p.deps.Detector.Detect(resolved)
	p.logger.Debug("platform detected", "url", rawURL, "platform", info.Platform, "strategy", info.ScrapingStrategy)

	scraped := p.deps.Scraper.ScrapeWith(ctx, resolved, info)
	if !scraped.Success {
		m.ScrapeFailures.Add(1)
		p.logger.Info("scrape failed", "url", rawURL, "platform", info.Platform, "error", scraped.Error)
		return p.failure(rawURL, "Scraping failed: "+scraped.Error)
	}

	normalized, err := p.normalize.Process(resolved.FinalURL, &scraped)
	if err != nil {
		return p.failure(rawURL, "Processing failed: "+err.Error())
	}
	if normalized == nil {
		m.ScrapeFailures.Add(1)
		return p.failure(rawURL, "Scraping failed: "+types.ErrNoProductData.Error())
	}

	link := p.deps.Converter.Convert(resolved, info)
	if link.IsConverted {
		m.LinksConverted.Add(1)
	}

	category := p.deps.Classifier.Classify(normalized.Name, normalized.Description)
	card := p.deps.Assembler.Assemble(*normalized, link, category, info, rawURL, targetPage)
	m.CardsAssembled.Add(1)

	result := types.ProcessingResult{
		Success:     true,
		OriginalURL: rawURL,
		ProductCard: &card,
	}

	if opts.Save {
		p.save(ctx, &result, targetPage)
	}

	p.logger.Info("card created",
		"url", rawURL,
		"id", card.ID,
		"platform", card.Platform,
		"category", card.Category,
		"network", card.AffiliateNetwork,
	)
	return result
}

// save writes the card to the content store. A failed write leaves the
// card on the result.
func (p *Processor) save(ctx context.Context, result *types.ProcessingResult, targetPage string) {
	m := p.deps.Metrics
	if p.deps.Store == nil {
		result.SaveError = types.ErrNoStore.Error()
		m.SaveErrors.Add(1)
		return
	}

	row := storage.NewContentRow(*result.ProductCard, targetPage, p.now())
	if err := p.deps.Store.Save(ctx, row); err != nil {
		p.logger.Error("save failed", "url", result.OriginalURL, "store", p.deps.Store.Name(), "error", err)
		result.SaveError = (&types.StorageError{Backend: p.deps.Store.Name(), Err: err}).Error()
		m.SaveErrors.Add(1)
		return
	}
	result.Saved = true
	m.CardsSaved.Add(1)
}

func (p *Processor) failure(rawURL, msg string) types.ProcessingResult {
	return types.ProcessingResult{
		Success:     false,
		OriginalURL: rawURL,
		Error:       msg,
	}
}

// Status summarises recorded runs.
func (p *Processor) Status(ctx context.Context) (types.QueueStatus, error) {
	return p.deps.Status.Snapshot(ctx)
}

// ClearStatus forgets every recorded run.
func (p *Processor) ClearStatus(ctx context.Context) error {
	return p.deps.Status.Clear(ctx)
}
