package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/dealcard/internal/pipeline"
)

var (
	targetPage string
	saveCards  bool
	urlsFile   string
)

// processCmd creates the "process" subcommand.
func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [url]",
		Short: "Turn one product URL into a product card",
		Args:  cobra.ExactArgs(1),
		RunE:  runProcess,
	}
	cmd.Flags().StringVarP(&targetPage, "page", "p", "", "display page for the card")
	cmd.Flags().BoolVarP(&saveCards, "save", "s", false, "write the card to the content store")
	return cmd
}

// bulkCmd creates the "bulk" subcommand.
func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk [url...]",
		Short: "Process many product URLs in batches",
		Long: `Process URLs given as arguments and/or listed one per line in --file.
Blank lines and lines starting with # are ignored.`,
		RunE: runBulk,
	}
	cmd.Flags().StringVarP(&targetPage, "page", "p", "", "display page for the cards")
	cmd.Flags().BoolVarP(&saveCards, "save", "s", false, "write cards to the content store")
	cmd.Flags().StringVarP(&urlsFile, "file", "f", "", "file with one URL per line")
	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, saveCards)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.processor.ProcessURL(ctx, args[0], pipeline.Options{TargetPage: targetPage, Save: saveCards})
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%s", result.Error)
	}
	return nil
}

func runBulk(cmd *cobra.Command, args []string) error {
	urls := append([]string{}, args...)
	if urlsFile != "" {
		fromFile, err := readURLs(urlsFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, saveCards)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.processor.ProcessMany(ctx, urls, pipeline.Options{TargetPage: targetPage, Save: saveCards})
	if err := printJSON(result); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\n%d URLs: %d cards, %d failed in %dms\n",
		result.TotalURLs, result.SuccessfullyProcessed, result.Failed, result.ProcessingTime)
	return nil
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
