package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"newsharvest/internal/aggregator"
	"newsharvest/internal/cache"
	"newsharvest/internal/collector"
	"newsharvest/internal/config"
	"newsharvest/internal/dataset"
	"newsharvest/internal/enrich"
	"newsharvest/internal/logging"
	"newsharvest/internal/models"
	"newsharvest/internal/runner"
	"newsharvest/internal/storage"
)

const sampleDataset = `title,published,source,url,text,description,collection_method,collection_query_or_source,collected_at
Fed holds rates,2024-05-17,Reuters,https://r.example/1,The Federal Reserve held interest rates steady as inflation cooled,d1,api,federal reserve interest rates,2024-05-17T09:00:00.000000
Oil steady,2024-05-17,CNBC,https://c.example/2,Crude was little changed,d2,feed,CNBC,2024-05-17T09:01:00.000000
Stocks rally,2024-05-17,Reuters,https://r.example/3,Indexes rose on earnings,d3,feed,Reuters Business,2024-05-17T09:02:00.000000
`

type staticCollector struct {
	block    chan struct{}
	articles []models.Article
}

func (s *staticCollector) Name() string                    { return "static" }
func (s *staticCollector) Method() models.CollectionMethod { return models.MethodFeed }

func (s *staticCollector) Collect(ctx context.Context) ([]models.Article, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.articles, nil
}

type testServer struct {
	server *Server
	dir    string
}

func newTestServer(t *testing.T, withData bool, feeds ...collector.Collector) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	snapshots := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snapshots, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Output: config.OutputConfig{
			RawPath:     filepath.Join(dir, "financial_news.csv"),
			SnapshotDir: snapshots,
		},
	}

	if withData {
		for _, path := range []string{cfg.Output.RawPath, filepath.Join(snapshots, "api_20240517_093000.csv")} {
			if err := os.WriteFile(path, []byte(sampleDataset), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}

	logger := logging.Discard()
	cacheManager := cache.NewManager(time.Minute)
	run := runner.New(cfg, logger,
		runner.WithAggregator(func() *aggregator.Aggregator {
			return aggregator.New(nil, feeds, 0, 0, logger)
		}),
		runner.WithWriter(storage.NewWriter(logger, storage.WithSnapshotDir(snapshots))),
	)
	t.Cleanup(run.Stop)

	server := NewServer(cfg,
		dataset.NewService(cfg.Output.RawPath, cacheManager, logger),
		enrich.New(logger),
		run,
		cacheManager,
		logger,
	)
	return &testServer{server: server, dir: dir}
}

func (ts *testServer) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	ts.server.Router().ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode %s %s response: %v", method, path, err)
	}
	return w, body
}

func TestServer_New(t *testing.T) {
	ts := newTestServer(t, false)
	if ts.server == nil {
		t.Fatal("Expected server to be created, got nil")
	}
	if ts.server.Router() == nil {
		t.Error("Expected router to be initialized")
	}
}

func TestServer_HealthCheck(t *testing.T) {
	ts := newTestServer(t, false)

	w, body := ts.do(t, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if body["service"] != "newsharvest" {
		t.Errorf("Expected service newsharvest, got %v", body["service"])
	}
	if body["collecting"] != false {
		t.Errorf("Expected collecting false, got %v", body["collecting"])
	}
}

func TestServer_GetArticles(t *testing.T) {
	ts := newTestServer(t, true)

	tests := []struct {
		name    string
		query   string
		code    int
		count   float64
		columns int
	}{
		{"all", "", http.StatusOK, 3, 9},
		{"filter", "?$filter=source%20eq%20'Reuters'", http.StatusOK, 2, 9},
		{"filter and", "?$filter=source%20eq%20'Reuters'%20and%20collection_method%20eq%20'feed'", http.StatusOK, 1, 9},
		{"top and select", "?$top=1&$select=title,url", http.StatusOK, 1, 2},
		{"skip", "?$skip=2", http.StatusOK, 1, 9},
		{"search", "?$search=crude,nothing", http.StatusOK, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := ts.do(t, "GET", "/api/v1/articles"+tt.query)
			if w.Code != tt.code {
				t.Fatalf("Expected status %d, got %d", tt.code, w.Code)
			}
			if body["count"] != tt.count {
				t.Errorf("Expected count %v, got %v", tt.count, body["count"])
			}
			if columns, _ := body["columns"].([]interface{}); len(columns) != tt.columns {
				t.Errorf("Expected %d columns, got %v", tt.columns, body["columns"])
			}
		})
	}
}

func TestServer_GetArticlesInvalidFilter(t *testing.T) {
	ts := newTestServer(t, true)

	w, body := ts.do(t, "GET", "/api/v1/articles?$filter=nonsense")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if body["error"] == nil {
		t.Error("Expected an error message")
	}

	w, _ = ts.do(t, "GET", "/api/v1/articles?$top=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid $top, got %d", w.Code)
	}
}

func TestServer_MissingDataset(t *testing.T) {
	ts := newTestServer(t, false)

	for _, path := range []string{"/api/v1/articles", "/api/v1/stats"} {
		w, _ := ts.do(t, "GET", path)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404 for %s, got %d", path, w.Code)
		}
	}
}

func TestServer_GetStats(t *testing.T) {
	ts := newTestServer(t, true)

	w, body := ts.do(t, "GET", "/api/v1/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body["rows"] != float64(3) {
		t.Errorf("Expected 3 rows, got %v", body["rows"])
	}
	if body["enriched"] != false {
		t.Errorf("Expected dataset not enriched yet, got %v", body["enriched"])
	}
}

func TestServer_ListDatasets(t *testing.T) {
	ts := newTestServer(t, true)

	w, body := ts.do(t, "GET", "/api/v1/datasets")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body["count"] != float64(2) {
		t.Errorf("Expected 2 datasets, got %v", body["count"])
	}

	datasets, _ := body["datasets"].([]interface{})
	names := make(map[string]bool)
	for _, d := range datasets {
		entry, _ := d.(map[string]interface{})
		names[entry["name"].(string)] = true
	}
	if !names["financial_news.csv"] || !names["api_20240517_093000.csv"] {
		t.Errorf("Unexpected dataset names %v", names)
	}
}

func TestServer_GetDataset(t *testing.T) {
	ts := newTestServer(t, true)

	w, body := ts.do(t, "GET", "/api/v1/datasets/api_20240517_093000.csv?$filter=source%20eq%20'CNBC'")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body["count"] != float64(1) {
		t.Errorf("Expected 1 row, got %v", body["count"])
	}

	w, _ = ts.do(t, "GET", "/api/v1/datasets/nope.csv")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	w, _ = ts.do(t, "GET", "/api/v1/datasets/notes.txt")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid name, got %d", w.Code)
	}
}

func TestServer_Enrich(t *testing.T) {
	ts := newTestServer(t, true)

	// warm the dataset cache so enrichment has to invalidate it
	if w, _ := ts.do(t, "GET", "/api/v1/stats"); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w, body := ts.do(t, "POST", "/api/v1/enrich")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body["rows"] != float64(3) {
		t.Errorf("Expected 3 rows enriched, got %v", body["rows"])
	}

	_, stats := ts.do(t, "GET", "/api/v1/stats")
	if stats["enriched"] != true {
		t.Errorf("Expected dataset to be enriched, got %v", stats["enriched"])
	}
	if stats["with_financial_terms"] == float64(0) {
		t.Error("Expected at least one row with financial terms")
	}

	w, body = ts.do(t, "POST", "/api/v1/datasets/api_20240517_093000.csv/enrich")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body["path"] != filepath.Join(ts.dir, "snapshots", "api_20240517_093000.csv") {
		t.Errorf("Unexpected enriched path %v", body["path"])
	}
}

func TestServer_EnrichMissingDataset(t *testing.T) {
	ts := newTestServer(t, false)

	w, _ := ts.do(t, "POST", "/api/v1/enrich")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_Collect(t *testing.T) {
	block := make(chan struct{})
	feed := &staticCollector{
		block: block,
		articles: []models.Article{
			{Title: "Fed holds rates", URL: "https://r.example/1", Source: "Reuters", CollectionMethod: models.MethodFeed},
		},
	}
	ts := newTestServer(t, false, feed)

	w, body := ts.do(t, "POST", "/api/v1/collect")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if body["status"] != "running" {
		t.Errorf("Expected status running, got %v", body["status"])
	}

	w, _ = ts.do(t, "POST", "/api/v1/collect")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 while a run is active, got %d", w.Code)
	}

	close(block)

	var status map[string]interface{}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, status = ts.do(t, "GET", "/api/v1/collect/status")
		if status["running"] == false {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status["running"] != false {
		t.Fatal("Expected collection run to finish")
	}
	last, _ := status["last"].(map[string]interface{})
	if last == nil || last["collected"] != float64(1) {
		t.Errorf("Expected last run with 1 article, got %v", status["last"])
	}

	if _, err := os.Stat(filepath.Join(ts.dir, "financial_news.csv")); err != nil {
		t.Errorf("Expected dataset to be written: %v", err)
	}
	w, body = ts.do(t, "GET", "/api/v1/articles")
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Errorf("Expected collected article to be queryable, got %d %v", w.Code, body["count"])
	}
}

func TestParseSelectFields(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"title", []string{"title"}},
		{" title , url ,", []string{"title", "url"}},
	}

	for _, tt := range tests {
		got := parseSelectFields(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("parseSelectFields(%q) = %v, want %v", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("parseSelectFields(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		}
	}
}

func TestServer_StartWithContext(t *testing.T) {
	ts := newTestServer(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.server.StartWithContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled after shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected server to stop after cancel")
	}
}
