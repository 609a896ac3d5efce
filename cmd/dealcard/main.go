package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/dealcard/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dealcard",
		Short: "dealcard turns product links into affiliate-ready product cards",
		Long: `dealcard resolves shortened product links, detects the e-commerce
platform, scrapes name, price, image and rating, rewrites the link into
the matching affiliate format, assigns a category and emits a product card.

Run it as an HTTP API (serve), as an MCP tool server (mcp), or one-shot
from the command line (process, bulk).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(bulkCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(platformsCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dealcard %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  Admin key set:     %v\n", cfg.Server.AdminKey != "")
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Domain RPS:        %g (burst %d)\n", cfg.Fetcher.DomainRPS, cfg.Fetcher.DomainBurst)
			fmt.Printf("  Respect robots.txt: %v\n", cfg.Fetcher.RespectRobotsTxt)
			fmt.Printf("  Browser:           %v (stealth %v, %d pages)\n", cfg.Browser.Enabled, cfg.Browser.Stealth, cfg.Browser.MaxPages)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Rotation:          %s\n", cfg.Proxy.Rotation)
			fmt.Printf("  Count:             %d\n", len(cfg.Proxy.URLs))
			fmt.Printf("\nAffiliate:\n")
			fmt.Printf("  Amazon tag:        %s\n", cfg.Affiliate.AmazonTag)
			fmt.Printf("  Flipkart ID set:   %v\n", cfg.Affiliate.FlipkartID != "")
			fmt.Printf("  CueLinks ID set:   %v\n", cfg.Affiliate.CuelinksID != "")
			fmt.Printf("  EarnKaro ID set:   %v\n", cfg.Affiliate.EarnKaroID != "")
			fmt.Printf("\nPipeline:\n")
			fmt.Printf("  Timeout:           %s\n", cfg.Pipeline.Timeout)
			fmt.Printf("  Batch:             %d every %s (max %d URLs)\n", cfg.Bulk.BatchSize, cfg.Bulk.BatchDelay, cfg.Bulk.MaxURLs)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Backends:          %s\n", strings.Join(cfg.Storage.Backends, ", "))
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  Status backend:    %s\n", cfg.Status.Backend)
			fmt.Printf("\nSchedule:\n")
			fmt.Printf("  Enabled:           %v (%s, %d URLs)\n", cfg.Schedule.Enabled, cfg.Schedule.Spec, len(cfg.Schedule.URLs))
			fmt.Printf("\nMCP:\n")
			fmt.Printf("  Enabled:           %v at %s\n", cfg.MCP.Enabled, cfg.MCP.Path)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v at %s\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
			return nil
		},
	}
}
