package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsharvest/internal/aggregator"
	"newsharvest/internal/models"
	"newsharvest/internal/runner"
	"newsharvest/internal/storage"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"A", "B"}, [][]string{{"日本", "x"}, {"ab", "y"}})

	expected := "A     B\n日本  x\nab    y\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := truncateTitle("  Fed holds rates "); got != "Fed holds rates" {
		t.Errorf("Expected short title unchanged, got %q", got)
	}

	got := truncateTitle(strings.Repeat("a", 150))
	if len(got) != titleWidth || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected %d-wide title ending in ..., got %d %q", titleWidth, len(got), got)
	}
}

func TestEnrichTargets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.tsv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("title\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, _ := enrichTargets([]string{"x.csv"}, dir, []string{"y.csv"}, dir)
	if len(paths) != 1 || paths[0] != "x.csv" {
		t.Errorf("Expected explicit args to win, got %v", paths)
	}

	paths, err := enrichTargets(nil, dir, []string{"y.csv"}, "")
	if err != nil {
		t.Fatalf("enrichTargets() error = %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "a.tsv" {
		t.Errorf("Expected 2 discovered datasets, got %v", paths)
	}

	paths, _ = enrichTargets(nil, "", []string{"y.csv"}, dir)
	if len(paths) != 1 || paths[0] != "y.csv" {
		t.Errorf("Expected configured paths, got %v", paths)
	}

	paths, _ = enrichTargets(nil, "", nil, dir)
	if len(paths) != 2 {
		t.Errorf("Expected configured directory to be scanned, got %v", paths)
	}

	if paths, _ := enrichTargets(nil, "", nil, ""); len(paths) != 0 {
		t.Errorf("Expected no targets, got %v", paths)
	}
}

func TestPrintSummary(t *testing.T) {
	summary := &runner.Summary{
		Collected: 2,
		Sources: []aggregator.SourceResult{
			{Name: "stock market", Method: models.MethodAPI, Articles: 1},
			{Name: "CNBC", Method: models.MethodFeed, Articles: 1},
			{Name: "Broken", Method: models.MethodFeed, Error: "parse error"},
		},
		ByMethod: map[models.CollectionMethod]int{models.MethodAPI: 1, models.MethodFeed: 1},
		Written:  &storage.WriteResult{Canonical: "data/raw/financial_news.csv", Rows: 2},
		Articles: []models.Article{
			{Title: "Fed holds rates", Source: "Reuters"},
			{Title: "Oil steady", Source: "CNBC"},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, summary, 1)
	out := buf.String()

	for _, want := range []string{
		"Total articles: 2",
		"  api: 1",
		"parse error",
		"Saved 2 rows to data/raw/financial_news.csv",
		"1. [Reuters] Fed holds rates",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Oil steady") {
		t.Error("Expected only one sample title")
	}
}
