package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"newsharvest/internal/models"
	"newsharvest/internal/runner"
)

var (
	sampleCount   int
	splitByMethod bool
)

func collectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass over all queries and feeds",
		Long: `Collect queries the search API (when a key is configured) and every
configured feed, deduplicates the results and writes the canonical
dataset plus a timestamped snapshot.`,
		Args: cobra.NoArgs,
		RunE: runCollect,
	}

	cmd.Flags().IntVarP(&sampleCount, "sample", "s", 5, "number of collected titles to print")
	cmd.Flags().BoolVar(&splitByMethod, "split", false, "also write one snapshot per collection method")
	return cmd
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if splitByMethod {
		cfg.Output.SplitByMethod = true
	}
	if !cfg.HasAPIKey() {
		logger.Warn("no search api key configured, only feeds will be collected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.New(cfg, logger).Run(ctx)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary, sampleCount)
	}
	if errors.Is(err, models.ErrNoArticles) {
		fmt.Fprintln(cmd.OutOrStdout(), "No articles collected")
		return nil
	}
	return err
}

func printSummary(w io.Writer, summary *runner.Summary, samples int) {
	rows := make([][]string, 0, len(summary.Sources))
	for _, source := range summary.Sources {
		rows = append(rows, []string{
			source.Name,
			string(source.Method),
			strconv.Itoa(source.Articles),
			source.Error,
		})
	}
	renderTable(w, []string{"SOURCE", "METHOD", "ARTICLES", "ERROR"}, rows)

	fmt.Fprintf(w, "\nTotal articles: %d\n", summary.Collected)
	for _, method := range []models.CollectionMethod{models.MethodAPI, models.MethodFeed} {
		fmt.Fprintf(w, "  %s: %d\n", method, summary.ByMethod[method])
	}

	if summary.Written != nil {
		fmt.Fprintf(w, "Saved %d rows to %s (%d duplicates removed)\n",
			summary.Written.Rows, summary.Written.Canonical, summary.Written.Duplicates)
		fmt.Fprintf(w, "Snapshot: %s\n", summary.Written.Snapshot)
	}
	for _, method := range []models.CollectionMethod{models.MethodAPI, models.MethodFeed} {
		if path, ok := summary.Snapshots[string(method)]; ok {
			fmt.Fprintf(w, "Snapshot (%s): %s\n", method, path)
		}
	}

	if samples > len(summary.Articles) {
		samples = len(summary.Articles)
	}
	if samples > 0 {
		fmt.Fprintln(w, "\nSample articles:")
		for i, article := range summary.Articles[:samples] {
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, article.Source, truncateTitle(article.Title))
		}
	}
}
