package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsharvest/internal/enrich"
)

var enrichDir string

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich [file...]",
		Short: "Add derived text columns to collected datasets",
		Long: `Enrich rewrites each dataset in place, adding any missing schema
columns and recomputing cleaned_text, word counts and financial term
flags for rows whose text changed. Without arguments it uses the
configured paths, or every CSV in the configured directory.`,
		RunE: runEnrich,
	}

	cmd.Flags().StringVarP(&enrichDir, "dir", "d", "", "enrich every CSV/TSV file in this directory")
	return cmd
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := enrichTargets(args, enrichDir, cfg.Enrich.Paths, cfg.Enrich.Dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no datasets to enrich")
	}

	batch := enrich.New(logger, enrich.WithVersion(cfg.Enrich.Version)).EnrichFiles(paths)

	rows := make([][]string, 0, len(batch.Files))
	for _, report := range batch.Files {
		rows = append(rows, []string{
			report.Path,
			strconv.Itoa(report.Rows),
			strconv.Itoa(report.Changed),
			strings.Join(report.AddedColumns, ","),
			report.Error,
		})
	}
	out := cmd.OutOrStdout()
	renderTable(out, []string{"DATASET", "ROWS", "CHANGED", "ADDED", "ERROR"}, rows)
	fmt.Fprintf(out, "\nprocessed %d/%d\n", batch.Succeeded, len(paths))

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d datasets failed", batch.Failed, len(paths))
	}
	return nil
}

// enrichTargets picks explicit files first, then a directory flag, then
// the configured paths, then the configured directory
func enrichTargets(args []string, dirFlag string, configured []string, configuredDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dirFlag != "" {
		return enrich.DiscoverCSV(dirFlag)
	}
	if len(configured) > 0 {
		return configured, nil
	}
	if configuredDir != "" {
		return enrich.DiscoverCSV(configuredDir)
	}
	return nil, nil
}
