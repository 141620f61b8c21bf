package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"newsharvest/internal/cache"
	"newsharvest/internal/collector"
	"newsharvest/internal/config"
	"newsharvest/internal/extractor"
	"newsharvest/internal/models"
)

// SourceResult records what one collector contributed
type SourceResult struct {
	Name     string                  `json:"name"`
	Method   models.CollectionMethod `json:"method"`
	Articles int                     `json:"articles"`
	Error    string                  `json:"error,omitempty"`
}

// Result is the outcome of one aggregation run
type Result struct {
	Articles []models.Article `json:"articles"`
	Sources  []SourceResult   `json:"sources"`
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
}

func (r *Result) Total() int {
	return len(r.Articles)
}

// BySource counts articles per source name, merging sources that share a name
func (r *Result) BySource() map[string]int {
	counts := make(map[string]int)
	for _, a := range r.Articles {
		counts[a.Source]++
	}
	return counts
}

func (r *Result) ByMethod() map[models.CollectionMethod]int {
	counts := make(map[models.CollectionMethod]int)
	for _, a := range r.Articles {
		counts[a.CollectionMethod]++
	}
	return counts
}

// Failed lists the sources that stopped with an error
func (r *Result) Failed() []SourceResult {
	var failed []SourceResult
	for _, s := range r.Sources {
		if s.Error != "" {
			failed = append(failed, s)
		}
	}
	return failed
}

// Summary renders per-source counts, largest first
func (r *Result) Summary() string {
	counts := r.BySource()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Total articles: %d\n", r.Total())
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %d\n", name, counts[name])
	}
	return b.String()
}

// Aggregator runs every configured collector in a fixed order: all
// queries first, then all feeds, each group in configuration order
type Aggregator struct {
	queries    []collector.Collector
	feeds      []collector.Collector
	queryPacer *collector.Pacer
	feedPacer  *collector.Pacer
	cache      *cache.Manager
	logger     *slog.Logger
}

func New(queries, feeds []collector.Collector, queryDelay, feedDelay time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		queries:    queries,
		feeds:      feeds,
		queryPacer: collector.NewPacer(queryDelay),
		feedPacer:  collector.NewPacer(feedDelay),
		logger:     logger.With("component", "aggregator"),
	}
}

// FromConfig wires collectors, the shared extractor and its URL cache
// from cfg
func FromConfig(cfg *config.Config, logger *slog.Logger) *Aggregator {
	cacheManager := cache.NewManager(cfg.Extract.CacheTTL)
	ext := extractor.New(cfg.Extract, cacheManager, logger)
	clock := collector.NewClock(nil)

	var queries []collector.Collector
	for _, q := range cfg.Queries {
		queries = append(queries, collector.NewQueryCollector(q, collector.QueryOptions{
			API:       cfg.API,
			Target:    cfg.Limits.PerQuery,
			MinLength: cfg.Extract.MinLength,
			ItemDelay: cfg.Delays.Item,
			PageDelay: cfg.Delays.Page,
			Extractor: ext,
			Clock:     clock,
			Logger:    logger,
		}))
	}

	var feeds []collector.Collector
	for _, f := range cfg.Feeds {
		feeds = append(feeds, collector.NewFeedCollector(f, collector.FeedOptions{
			MaxItems:    cfg.Limits.PerFeed,
			MinLength:   cfg.Extract.MinLength,
			Timeout:     cfg.Extract.Timeout,
			UserAgent:   cfg.Extract.UserAgent,
			DeepExtract: cfg.Extract.Feeds,
			ItemDelay:   cfg.Delays.Item,
			Extractor:   ext,
			Clock:       clock,
			Logger:      logger,
		}))
	}

	agg := New(queries, feeds, cfg.Delays.Query, cfg.Delays.Feed, logger)
	agg.cache = cacheManager
	return agg
}

// CacheStats reports extraction cache usage, if a cache is wired
func (a *Aggregator) CacheStats() cache.Stats {
	if a.cache == nil {
		return cache.Stats{}
	}
	return a.cache.Stats()
}

// CollectAll runs the collectors sequentially and concatenates their
// output. Duplicates are kept; they are removed when the dataset is
// written. A cancelled ctx ends the run with whatever was gathered.
func (a *Aggregator) CollectAll(ctx context.Context) *Result {
	result := &Result{Started: time.Now()}

	a.runGroup(ctx, a.queries, a.queryPacer, result)
	a.runGroup(ctx, a.feeds, a.feedPacer, result)

	result.Finished = time.Now()
	a.logger.Info("aggregation completed",
		"articles", result.Total(),
		"sources", len(result.Sources),
		"failed", len(result.Failed()),
		"duration", result.Finished.Sub(result.Started),
	)
	return result
}

func (a *Aggregator) runGroup(ctx context.Context, group []collector.Collector, pacer *collector.Pacer, result *Result) {
	for _, c := range group {
		if ctx.Err() != nil {
			a.logger.Warn("aggregation interrupted", "error", ctx.Err())
			return
		}

		// Sources that cannot start are recorded without spending a pacing slot
		if p, ok := c.(collector.Preflighter); ok {
			if err := p.Preflight(); err != nil {
				a.logger.Warn("source skipped", "source", c.Name(), "error", err)
				result.Sources = append(result.Sources, SourceResult{Name: c.Name(), Method: c.Method(), Error: err.Error()})
				continue
			}
		}

		if err := pacer.Wait(ctx); err != nil {
			a.logger.Warn("aggregation interrupted", "error", err)
			return
		}

		a.logger.Info("collecting", "source", c.Name(), "method", c.Method())
		articles, err := c.Collect(ctx)

		source := SourceResult{Name: c.Name(), Method: c.Method(), Articles: len(articles)}
		if err != nil {
			source.Error = err.Error()
			a.logger.Warn("source finished with error",
				"source", c.Name(),
				"articles", len(articles),
				"error", err,
			)
		}
		result.Sources = append(result.Sources, source)
		result.Articles = append(result.Articles, articles...)
	}
}
