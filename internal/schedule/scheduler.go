// Package schedule runs the bulk pipeline over a watch list on a cron spec.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/IshaanNene/dealcard/internal/config"
	"github.com/IshaanNene/dealcard/internal/pipeline"
	"github.com/IshaanNene/dealcard/internal/types"
)

// BulkProcessor runs many URLs through the pipeline.
type BulkProcessor interface {
	ProcessMany(ctx context.Context, urls []string, opts pipeline.Options) types.BulkProcessingResult
}

// Scheduler wraps robfig/cron and manages the watch-list loop.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ScheduleConfig
	processor BulkProcessor
	running   atomic.Bool
	runs      atomic.Int64
	logger    *slog.Logger
}

// New creates a Scheduler for cfg.
func New(cfg config.ScheduleConfig, processor BulkProcessor, logger *slog.Logger) *Scheduler {
	logger = logger.With("component", "scheduler")
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cronLogger{logger})),
		cfg:       cfg,
		processor: processor,
		logger:    logger,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.cfg.URLs) == 0 {
		return fmt.Errorf("schedule has no URLs")
	}
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.cfg.Spec, "urls", len(s.cfg.URLs))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", "runs", s.runs.Load())
}

// RunOnce processes the watch list. It reports false when a previous run
// is still in progress, in which case nothing is done.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping")
		return false
	}
	defer s.running.Store(false)

	s.logger.Info("scheduled run started", "urls", len(s.cfg.URLs))
	res := s.processor.ProcessMany(ctx, s.cfg.URLs, pipeline.Options{
		TargetPage: s.cfg.TargetPage,
		Save:       s.cfg.Save,
	})
	s.runs.Add(1)
	s.logger.Info("scheduled run complete",
		"total", res.TotalURLs,
		"success", res.SuccessfullyProcessed,
		"failed", res.Failed,
		"elapsed_ms", res.ProcessingTime,
	)
	return true
}

// Runs returns the number of completed runs.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
