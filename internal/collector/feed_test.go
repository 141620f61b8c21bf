package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsharvest/internal/config"
	"newsharvest/internal/logging"
	"newsharvest/internal/models"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Markets Wire</title>
<link>https://wire.example.com</link>
<description>Market news</description>
<item>
<title>Stocks rally</title>
<link>https://wire.example.com/1</link>
<pubDate>Fri, 17 May 2024 09:00:00 GMT</pubDate>
<description>Indexes closed higher on Friday.</description>
</item>
<item>
<title>Bonds slip</title>
<link>https://wire.example.com/2</link>
<pubDate>Fri, 17 May 2024 10:00:00 GMT</pubDate>
<description>Yields rose after the data.</description>
</item>
<item>
<title>Oil steady</title>
<link>https://wire.example.com/3</link>
<pubDate>Fri, 17 May 2024 11:00:00 GMT</pubDate>
<description>Crude was little changed.</description>
</item>
</channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			fmt.Fprint(w, sampleRSS)
		case "/broken":
			fmt.Fprint(w, "this is not a feed")
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFeedCollector_Collect(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	f := NewFeedCollector(config.FeedConfig{Name: "Markets Wire", URL: server.URL + "/rss"}, FeedOptions{
		MaxItems: 20,
		Logger:   logging.Discard(),
	})

	articles, err := f.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Stocks rally" || a.URL != "https://wire.example.com/1" {
		t.Errorf("Unexpected article %+v", a)
	}
	if a.Text != "Indexes closed higher on Friday." {
		t.Errorf("Expected description as text, got %q", a.Text)
	}
	if a.Published != "Fri, 17 May 2024 09:00:00 GMT" {
		t.Errorf("Expected raw published string, got %q", a.Published)
	}
	if a.Source != "Markets Wire" || a.QueryOrSource != "Markets Wire" {
		t.Errorf("Expected feed name as source, got %s/%s", a.Source, a.QueryOrSource)
	}
	if a.CollectionMethod != models.MethodFeed {
		t.Errorf("Expected feed method, got %s", a.CollectionMethod)
	}
}

func TestFeedCollector_MaxItems(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	f := NewFeedCollector(config.FeedConfig{Name: "w", URL: server.URL + "/rss"}, FeedOptions{
		MaxItems: 2,
		Logger:   logging.Discard(),
	})

	articles, _ := f.Collect(context.Background())
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles, got %d", len(articles))
	}
}

func TestFeedCollector_BrokenFeed(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	for _, path := range []string{"/broken", "/missing"} {
		f := NewFeedCollector(config.FeedConfig{Name: "bad", URL: server.URL + path}, FeedOptions{
			MaxItems: 20,
			Logger:   logging.Discard(),
		})

		articles, err := f.Collect(context.Background())
		var parseErr *models.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Expected ParseError for %s, got %v", path, err)
		}
		if len(articles) != 0 {
			t.Errorf("Expected no articles for %s, got %d", path, len(articles))
		}
	}
}

func TestFeedCollector_DeepExtract(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	ext := &stubExtractor{text: "the whole story"}
	f := NewFeedCollector(config.FeedConfig{Name: "w", URL: server.URL + "/rss"}, FeedOptions{
		MaxItems:    1,
		MinLength:   100,
		DeepExtract: true,
		Extractor:   ext,
		Logger:      logging.Discard(),
	})

	articles, _ := f.Collect(context.Background())
	if len(articles) != 1 || articles[0].Text != "the whole story" {
		t.Errorf("Expected extracted text, got %+v", articles)
	}
	if articles[0].Description != "Indexes closed higher on Friday." {
		t.Errorf("Expected description kept, got %q", articles[0].Description)
	}
}

func TestStripInlineMarkup(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<p>Line one</p>", "Line one"},
		{"first<br>second", "first second"},
		{"a<BR/>b<br />c", "a b c"},
		{"<b>bold</b> stays", "<b>bold</b> stays"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripInlineMarkup(tt.input); got != tt.expected {
			t.Errorf("StripInlineMarkup(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
