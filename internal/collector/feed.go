package collector

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsharvest/internal/config"
	"newsharvest/internal/extractor"
	"newsharvest/internal/models"
)

// inlineMarkup matches the paragraph and line-break tags feeds embed in
// their summaries
var inlineMarkup = regexp.MustCompile(`(?i)</?p\s*>|<br\s*/?>`)

// FeedOptions configures a FeedCollector
type FeedOptions struct {
	MaxItems    int
	MinLength   int
	Timeout     time.Duration
	UserAgent   string
	DeepExtract bool
	ItemDelay   time.Duration
	Extractor   TextExtractor
	Clock       *Clock
	Logger      *slog.Logger
}

// FeedCollector reads the entries of one RSS or Atom feed
type FeedCollector struct {
	feed        config.FeedConfig
	maxItems    int
	minLength   int
	deepExtract bool
	parser      *gofeed.Parser
	extractor   TextExtractor
	itemPacer   *Pacer
	clock       *Clock
	logger      *slog.Logger
}

func NewFeedCollector(feed config.FeedConfig, opts FeedOptions) *FeedCollector {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if opts.UserAgent != "" {
		parser.UserAgent = opts.UserAgent
	}

	clock := opts.Clock
	if clock == nil {
		clock = NewClock(nil)
	}

	return &FeedCollector{
		feed:        feed,
		maxItems:    opts.MaxItems,
		minLength:   opts.MinLength,
		deepExtract: opts.DeepExtract,
		parser:      parser,
		extractor:   opts.Extractor,
		itemPacer:   NewPacer(opts.ItemDelay),
		clock:       clock,
		logger:      opts.Logger.With("component", "feed_collector", "feed", feed.Name),
	}
}

func (f *FeedCollector) Name() string { return f.feed.Name }

func (f *FeedCollector) Method() models.CollectionMethod { return models.MethodFeed }

// Collect parses the feed and normalizes up to maxItems entries. A feed
// that cannot be fetched or parsed yields no articles.
func (f *FeedCollector) Collect(ctx context.Context) ([]models.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(f.feed.URL, ctx)
	if err != nil {
		f.logger.Warn("failed to parse feed", "url", f.feed.URL, "error", err)
		return nil, &models.ParseError{Source: f.feed.Name, Err: err}
	}

	items := parsed.Items
	if f.maxItems >= 0 && len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		articles = append(articles, f.normalize(ctx, item))
	}

	f.logger.Info("feed collected", "articles", len(articles))
	return articles, nil
}

func (f *FeedCollector) normalize(ctx context.Context, item *gofeed.Item) models.Article {
	inline := item.Content
	if strings.TrimSpace(inline) == "" {
		inline = item.Description
	}
	text := StripInlineMarkup(inline)

	if f.deepExtract && f.extractor != nil && item.Link != "" &&
		extractor.IsThinContent(text, f.minLength) {
		if err := f.itemPacer.Wait(ctx); err == nil {
			if full := f.extractor.Extract(ctx, item.Link); full != "" {
				text = full
			}
		}
	}

	published := item.Published
	if published == "" {
		published = item.Updated
	}

	return models.Article{
		Title:            item.Title,
		Published:        published,
		Source:           f.feed.Name,
		URL:              item.Link,
		Text:             text,
		Description:      item.Description,
		CollectionMethod: models.MethodFeed,
		QueryOrSource:    f.feed.Name,
		CollectedAt:      f.clock.Now(),
	}
}

// StripInlineMarkup replaces paragraph and line-break tags with spaces
func StripInlineMarkup(s string) string {
	return strings.TrimSpace(inlineMarkup.ReplaceAllString(s, " "))
}
