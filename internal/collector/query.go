package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsharvest/internal/config"
	"newsharvest/internal/extractor"
	"newsharvest/internal/models"
)

const (
	maxResponseBytes   = 4 << 20 // 4MB
	providerTimeLayout = "2006-01-02T15:04:05"
	unknownSource      = "Unknown"
)

// searchResponse is the provider's JSON envelope
type searchResponse struct {
	Status       string         `json:"status"`
	Code         string         `json:"code"`
	Message      string         `json:"message"`
	TotalResults int            `json:"totalResults"`
	Articles     []searchResult `json:"articles"`
}

type searchResult struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// QueryOptions configures a QueryCollector
type QueryOptions struct {
	API        config.APIConfig
	Target     int
	MinLength  int
	ItemDelay  time.Duration
	PageDelay  time.Duration
	Extractor  TextExtractor
	Clock      *Clock
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// QueryCollector pages through search results for one query
type QueryCollector struct {
	query     string
	api       config.APIConfig
	target    int
	minLength int
	client    *http.Client
	extractor TextExtractor
	itemPacer *Pacer
	pagePacer *Pacer
	clock     *Clock
	logger    *slog.Logger
}

func NewQueryCollector(query string, opts QueryOptions) *QueryCollector {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.API.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewClock(nil)
	}

	return &QueryCollector{
		query:     query,
		api:       opts.API,
		target:    opts.Target,
		minLength: opts.MinLength,
		client:    client,
		extractor: opts.Extractor,
		itemPacer: NewPacer(opts.ItemDelay),
		pagePacer: NewPacer(opts.PageDelay),
		clock:     clock,
		logger:    opts.Logger.With("component", "query_collector", "query", query),
	}
}

func (q *QueryCollector) Name() string { return q.query }

func (q *QueryCollector) Method() models.CollectionMethod { return models.MethodAPI }

// Preflight reports ErrMissingAPIKey when no usable key is configured
func (q *QueryCollector) Preflight() error {
	if !config.ValidAPIKey(q.api.Key) {
		return models.ErrMissingAPIKey
	}
	return nil
}

// PageSize is the per-request page size: the configured size (or the
// target when unset), never above the target or the provider maximum
func (q *QueryCollector) PageSize() int {
	size := q.api.PageSize
	if size <= 0 || size > q.target {
		size = q.target
	}
	if size > config.MaxPageSize {
		size = config.MaxPageSize
	}
	return size
}

// Collect fetches pages until the target is reached, a page comes back
// empty, or the last page implied by totalResults has been read
func (q *QueryCollector) Collect(ctx context.Context) ([]models.Article, error) {
	if err := q.Preflight(); err != nil {
		q.logger.Warn("skipping query, no api key configured")
		return nil, err
	}
	if q.target <= 0 {
		return nil, nil
	}

	pageSize := q.PageSize()
	var articles []models.Article

	for page := 1; len(articles) < q.target; page++ {
		if err := q.pagePacer.Wait(ctx); err != nil {
			return articles, err
		}

		resp, err := q.fetchPage(ctx, page, pageSize)
		if err != nil {
			q.logger.Warn("aborting query pagination", "page", page, "error", err)
			return articles, err
		}

		if len(resp.Articles) == 0 {
			q.logger.Debug("empty page, stopping", "page", page)
			break
		}

		for _, item := range resp.Articles {
			if len(articles) >= q.target {
				break
			}
			articles = append(articles, q.normalize(ctx, item))
		}

		lastPage := (resp.TotalResults + pageSize - 1) / pageSize
		if page >= lastPage {
			break
		}
	}

	q.logger.Info("query collected", "articles", len(articles))
	return articles, nil
}

func (q *QueryCollector) fetchPage(ctx context.Context, page, pageSize int) (*searchResponse, error) {
	endpoint, err := url.Parse(q.api.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	params := endpoint.Query()
	params.Set("q", q.query)
	params.Set("language", languageOrDefault(q.api.Language))
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("apiKey", q.api.Key)
	if q.api.Lookback > 0 {
		now := q.clock.Now().UTC()
		params.Set("from", now.Add(-q.api.Lookback).Format(providerTimeLayout))
		params.Set("to", now.Format(providerTimeLayout))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := q.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: q.api.Endpoint, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, &models.FetchError{URL: q.api.Endpoint, StatusCode: res.StatusCode, Err: err}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, &models.FetchError{URL: q.api.Endpoint, StatusCode: res.StatusCode, Err: errors.New(http.StatusText(res.StatusCode))}
		}
		return nil, &models.ParseError{Source: q.api.Endpoint, Err: err}
	}

	if resp.Status != "ok" {
		return nil, &models.ProviderError{Status: resp.Status, Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}

func (q *QueryCollector) normalize(ctx context.Context, item searchResult) models.Article {
	text := item.Content
	if text == "" {
		text = item.Description
	}

	if q.api.DeepExtract && q.extractor != nil && item.URL != "" &&
		extractor.IsThinContent(item.Content, q.minLength) {
		if err := q.itemPacer.Wait(ctx); err == nil {
			if full := q.extractor.Extract(ctx, item.URL); full != "" {
				text = full
			}
		}
	}

	source := item.Source.Name
	if source == "" {
		source = unknownSource
	}

	return models.Article{
		Title:            item.Title,
		Published:        item.PublishedAt,
		Source:           source,
		URL:              item.URL,
		Text:             text,
		Description:      item.Description,
		CollectionMethod: models.MethodAPI,
		QueryOrSource:    q.query,
		CollectedAt:      q.clock.Now(),
	}
}

func languageOrDefault(language string) string {
	if language == "" {
		return "en"
	}
	return language
}
