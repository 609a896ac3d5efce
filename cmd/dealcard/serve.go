package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/dealcard/internal/api"
	"github.com/IshaanNene/dealcard/internal/mcpserver"
	"github.com/IshaanNene/dealcard/internal/schedule"
)

var servePort int

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the card pipeline over HTTP. When enabled in config, the MCP
tool endpoint and the Prometheus metrics endpoint are mounted on the same
server, and the scheduler processes the watch list in the background.`,
		RunE: runServe,
	}
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := api.Deps{
		Processor:  a.processor,
		Resolver:   a.resolver,
		Registry:   a.registry,
		Scraper:    a.scraper,
		Converter:  a.converter,
		Categories: a.classifier.Categories(),
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = a.metrics
		deps.MetricsPath = cfg.Metrics.Path
	}
	if cfg.MCP.Enabled {
		deps.MCP = mcpserver.New(a.processor, a.registry, a.resolver, logger).HTTPHandler(cfg.MCP.APIKey)
		deps.MCPPath = cfg.MCP.Path
	}

	if cfg.Schedule.Enabled {
		sched := schedule.New(cfg.Schedule, a.processor, logger)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	err = api.NewServer(cfg.Server, cfg.Bulk, deps, logger).Start(ctx)
	a.metrics.LogSummary()
	return err
}
