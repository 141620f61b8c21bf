package models

import (
	"time"
)

// CollectionMethod identifies which kind of source produced an article
type CollectionMethod string

const (
	MethodAPI  CollectionMethod = "api"
	MethodFeed CollectionMethod = "feed"
)

// CollectedAtLayout is the layout used when collected_at is persisted
const CollectedAtLayout = "2006-01-02T15:04:05.000000"

// Persisted column names for article fields
const (
	ColumnTitle            = "title"
	ColumnPublished        = "published"
	ColumnSource           = "source"
	ColumnURL              = "url"
	ColumnText             = "text"
	ColumnDescription      = "description"
	ColumnCollectionMethod = "collection_method"
	ColumnQueryOrSource    = "collection_query_or_source"
	ColumnCollectedAt      = "collected_at"
)

// ArticleColumns is the column order written for collected articles
var ArticleColumns = []string{
	ColumnTitle,
	ColumnPublished,
	ColumnSource,
	ColumnURL,
	ColumnText,
	ColumnDescription,
	ColumnCollectionMethod,
	ColumnQueryOrSource,
	ColumnCollectedAt,
}

// Article represents a single normalized news item
type Article struct {
	Title            string           `json:"title"`
	Published        string           `json:"published"`
	Source           string           `json:"source"`
	URL              string           `json:"url"`
	Text             string           `json:"text"`
	Description      string           `json:"description"`
	CollectionMethod CollectionMethod `json:"collection_method"`
	QueryOrSource    string           `json:"collection_query_or_source"`
	CollectedAt      time.Time        `json:"collected_at"`
}

// DedupKey returns the url, or the title when the url is empty.
// An empty key means the article never collapses with another one.
func (a Article) DedupKey() string {
	if a.URL != "" {
		return "url:" + a.URL
	}
	if a.Title != "" {
		return "title:" + a.Title
	}
	return ""
}

// Row renders the article in ArticleColumns order
func (a Article) Row() []string {
	collectedAt := ""
	if !a.CollectedAt.IsZero() {
		collectedAt = a.CollectedAt.Format(CollectedAtLayout)
	}
	return []string{
		a.Title,
		a.Published,
		a.Source,
		a.URL,
		a.Text,
		a.Description,
		string(a.CollectionMethod),
		a.QueryOrSource,
		collectedAt,
	}
}

// ODataQuery represents OData query parameters
type ODataQuery struct {
	Filter string   `json:"filter"`
	Select []string `json:"select"`
	Search []string `json:"search"` // Global search terms (OR logic)
	Top    int      `json:"top"`
	Skip   int      `json:"skip"`
}

// DatasetPage is a filtered slice of a persisted dataset
type DatasetPage struct {
	Path    string              `json:"path"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
	Updated time.Time           `json:"updated"`
}

// DatasetStats summarizes a persisted dataset
type DatasetStats struct {
	Path              string         `json:"path"`
	Rows              int            `json:"rows"`
	Columns           int            `json:"columns"`
	BySource          map[string]int `json:"by_source"`
	ByMethod          map[string]int `json:"by_method"`
	WithFinancialTerm int            `json:"with_financial_terms"`
	Enriched          bool           `json:"enriched"`
	LastModified      time.Time      `json:"last_modified"`
}
