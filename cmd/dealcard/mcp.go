package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/dealcard/internal/mcpserver"
)

// mcpCmd creates the "mcp" subcommand.
func mcpCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools over stdio",
		Long: `Start an MCP server on stdin/stdout exposing process_url, resolve_url,
detect_platform and list_platforms. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			a, err := newApp(context.Background(), cfg, logger, save)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcpserver.New(a.processor, a.registry, a.resolver, logger).ServeStdio()
		},
	}
	cmd.Flags().BoolVar(&save, "with-store", false, "open the content store so process_url can save cards")
	return cmd
}
