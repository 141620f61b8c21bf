package enrich

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsharvest/internal/storage"
)

// DefaultVersion is stamped into processed_version when a row has none
const DefaultVersion = "1.0"

// FileReport describes one enrichment pass over a dataset
type FileReport struct {
	Path         string   `json:"path"`
	Rows         int      `json:"rows"`
	Skipped      int      `json:"skipped"`
	Changed      int      `json:"changed"`
	AddedColumns []string `json:"added_columns"`
	Error        string   `json:"error,omitempty"`
}

// BatchReport aggregates the outcome of enriching several files
type BatchReport struct {
	Files     []FileReport `json:"files"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Enricher adds and repairs derived columns on persisted datasets
type Enricher struct {
	version string
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Enricher)

func WithVersion(version string) Option {
	return func(e *Enricher) {
		if version != "" {
			e.version = version
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

func New(logger *slog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		version: DefaultVersion,
		now:     time.Now,
		logger:  logger.With("component", "enricher"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichFile enriches the dataset at path in place and reports success.
// Failures are logged and never propagate.
func (e *Enricher) EnrichFile(path string) bool {
	report, err := e.Enrich(path)
	if err != nil {
		e.logger.Error("enrichment failed", "path", path, "error", err)
		return false
	}

	e.logger.Info("enrichment complete",
		"path", path,
		"rows", report.Rows,
		"changed", report.Changed,
		"skipped", report.Skipped,
		"added_columns", strings.Join(report.AddedColumns, ","),
	)
	return true
}

// Enrich loads path, repairs its schema, recomputes stale derived values
// and writes the result back atomically
func (e *Enricher) Enrich(path string) (*FileReport, error) {
	store := storage.NewStorage(path)

	table, err := store.Load(path)
	if err != nil {
		return nil, err
	}

	report := e.apply(table)
	report.Path = path

	if err := store.Save(table, path); err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Enricher) apply(table *storage.Table) *FileReport {
	today := e.now().Format(DateLayout)
	report := &FileReport{
		Rows:         table.Len(),
		AddedColumns: Migrate(table, MigrationContext{Today: today, Version: e.version}),
	}

	for row := 0; row < table.Len(); row++ {
		changed := false

		if source, ok := sourceText(table, row); ok {
			changed = e.refresh(table, row, source)
		} else {
			report.Skipped++
		}

		if strings.TrimSpace(table.Get(row, ColumnProcessedVersion)) == "" {
			changed = table.Set(row, ColumnProcessedVersion, e.version) || changed
		}
		if changed {
			report.Changed++
		}

		table.Set(row, ColumnProcessingDate, today)
	}

	return report
}

// refresh fills cleaned_text when empty and rewrites only the derived
// cells whose stored value differs from the recomputed one
func (e *Enricher) refresh(table *storage.Table, row int, source string) bool {
	changed := false

	cleaned := table.Get(row, ColumnCleanedText)
	if strings.TrimSpace(cleaned) == "" {
		cleaned = CleanText(source)
		changed = table.Set(row, ColumnCleanedText, cleaned) || changed
	}

	signals := Analyze(cleaned)

	ints := []struct {
		column string
		value  int
	}{
		{ColumnWordCount, signals.WordCount},
		{ColumnCharCount, signals.CharCount},
		{ColumnMoneyMentions, signals.MoneyMentions},
		{ColumnPercentageMentions, signals.PercentageMentions},
	}
	for _, field := range ints {
		if !sameInt(table.Get(row, field.column), field.value) {
			changed = table.Set(row, field.column, strconv.Itoa(field.value)) || changed
		}
	}

	if !sameBool(table.Get(row, ColumnHasFinancialTerms), signals.HasFinancialTerms) {
		changed = table.Set(row, ColumnHasFinancialTerms, FormatBool(signals.HasFinancialTerms)) || changed
	}

	return changed
}

func sourceText(table *storage.Table, row int) (string, bool) {
	for _, column := range SourceTextColumns {
		if value := table.Get(row, column); strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

// EnrichFiles enriches every path; a failing file does not stop the batch
func (e *Enricher) EnrichFiles(paths []string) BatchReport {
	var batch BatchReport

	for _, path := range paths {
		report, err := e.Enrich(path)
		if err != nil {
			e.logger.Error("enrichment failed", "path", path, "error", err)
			batch.Files = append(batch.Files, FileReport{Path: path, Error: err.Error()})
			batch.Failed++
			continue
		}
		e.logger.Info("enrichment complete", "path", path, "rows", report.Rows, "changed", report.Changed)
		batch.Files = append(batch.Files, *report)
		batch.Succeeded++
	}

	e.logger.Info("batch enrichment finished",
		"processed", fmt.Sprintf("%d/%d", batch.Succeeded, len(paths)),
	)
	return batch
}

// DiscoverCSV lists the delimited datasets directly inside dir, sorted
func DiscoverCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".tsv":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
