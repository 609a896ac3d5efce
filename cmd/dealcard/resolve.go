package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/dealcard/internal/platform"
	"github.com/IshaanNene/dealcard/internal/resolver"
)

// resolveCmd creates the "resolve" subcommand.
func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [url]",
		Short: "Follow a shortened link and detect its platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			resolved := resolver.New(cfg.Resolver, logger).Resolve(context.Background(), args[0])
			info := platform.DefaultRegistry().Detect(resolved)
			return printJSON(map[string]any{
				"resolved":     resolved,
				"platformInfo": info,
			})
		},
	}
}

// platformsCmd creates the "platforms" subcommand.
func platformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tNAME\tSTRATEGY\tAFFILIATE\tDOMAINS")
			for _, p := range platform.DefaultRegistry().List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", p.Platform, p.Name, p.Strategy, p.AffiliateSupported, strings.Join(p.Domains, ","))
			}
			w.Flush()
		},
	}
}
