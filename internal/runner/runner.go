package runner

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsharvest/internal/aggregator"
	"newsharvest/internal/cache"
	"newsharvest/internal/config"
	"newsharvest/internal/models"
	"newsharvest/internal/storage"
)

// ErrRunInProgress is returned when a collection run is already active
var ErrRunInProgress = errors.New("collection run already in progress")

// Summary describes one finished collection run
type Summary struct {
	RunID     string                          `json:"run_id"`
	Started   time.Time                       `json:"started"`
	Finished  time.Time                       `json:"finished"`
	Collected int                             `json:"collected"`
	Written   *storage.WriteResult            `json:"written,omitempty"`
	Snapshots map[string]string               `json:"snapshots,omitempty"`
	Sources   []aggregator.SourceResult       `json:"sources"`
	BySource  map[string]int                  `json:"by_source"`
	ByMethod  map[models.CollectionMethod]int `json:"by_method"`
	Cache     cache.Stats                     `json:"cache"`
	Error     string                          `json:"error,omitempty"`

	// Articles holds the collected records for callers printing samples
	Articles []models.Article `json:"-"`
}

// Runner performs collection runs one at a time, either inline or in
// the background
type Runner struct {
	cfg           *config.Config
	newAggregator func() *aggregator.Aggregator
	writer        *storage.Writer
	logger        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	running bool
	last    *Summary
}

type Option func(*Runner)

// WithAggregator replaces the config-built aggregator
func WithAggregator(build func() *aggregator.Aggregator) Option {
	return func(r *Runner) { r.newAggregator = build }
}

func WithWriter(w *storage.Writer) Option {
	return func(r *Runner) { r.writer = w }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		cfg:    cfg,
		logger: logger.With("component", "runner"),
		ctx:    ctx,
		cancel: cancel,
	}
	r.newAggregator = func() *aggregator.Aggregator {
		return aggregator.FromConfig(cfg, logger)
	}
	r.writer = storage.NewWriter(logger, storage.WithSnapshotDir(cfg.Output.SnapshotDir))

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Last returns the most recent finished run, or nil
func (r *Runner) Last() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Runner) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release(summary *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.last = summary
}

// Run collects from every source and persists the result, blocking
// until done. A run that gathers nothing, or fails to write, still
// returns its summary along with the error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if !r.acquire() {
		return nil, ErrRunInProgress
	}

	summary, err := r.run(ctx)
	r.release(summary)
	return summary, err
}

// Start launches a background run. Stop cancels it.
func (r *Runner) Start() error {
	if !r.acquire() {
		return ErrRunInProgress
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		summary, _ := r.run(r.ctx)
		r.release(summary)
	}()
	return nil
}

// Stop cancels a background run and waits for it to finish
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), Started: time.Now()}
	logger := r.logger.With("run_id", summary.RunID)
	logger.Info("collection run started",
		"queries", len(r.cfg.Queries),
		"feeds", len(r.cfg.Feeds),
	)

	agg := r.newAggregator()
	result := agg.CollectAll(ctx)

	summary.Articles = result.Articles
	summary.Collected = result.Total()
	summary.Sources = result.Sources
	summary.BySource = result.BySource()
	summary.ByMethod = result.ByMethod()
	summary.Cache = agg.CacheStats()

	err := r.persist(summary, logger)
	if err != nil {
		summary.Error = err.Error()
	}
	summary.Finished = time.Now()

	logger.Info("collection run finished",
		"collected", summary.Collected,
		"duration", summary.Finished.Sub(summary.Started),
		"error", summary.Error,
	)
	return summary, err
}

func (r *Runner) persist(summary *Summary, logger *slog.Logger) error {
	if len(summary.Articles) == 0 {
		logger.Warn("no articles collected, nothing written")
		return models.ErrNoArticles
	}

	path := r.cfg.Output.RawPath
	written, err := r.writer.Write(summary.Articles, path)
	if err != nil {
		logger.Error("failed to save dataset", "path", path, "error", err)
		return err
	}
	summary.Written = written
	logger.Info("dataset saved",
		"path", written.Canonical,
		"snapshot", written.Snapshot,
		"rows", written.Rows,
		"duplicates_removed", written.Duplicates,
	)

	if r.cfg.Output.SplitByMethod {
		summary.Snapshots = r.saveByMethod(summary.Articles, filepath.Dir(path), logger)
	}
	return nil
}

// saveByMethod writes one api_<ts>.csv / feed_<ts>.csv snapshot per
// collection method that produced articles
func (r *Runner) saveByMethod(articles []models.Article, dir string, logger *slog.Logger) map[string]string {
	groups := make(map[models.CollectionMethod][]models.Article)
	for _, a := range articles {
		groups[a.CollectionMethod] = append(groups[a.CollectionMethod], a)
	}

	snapshots := make(map[string]string)
	for _, method := range []models.CollectionMethod{models.MethodAPI, models.MethodFeed} {
		if len(groups[method]) == 0 {
			continue
		}
		path, err := r.writer.SaveSnapshot(groups[method], dir, string(method))
		if err != nil {
			logger.Warn("failed to save method snapshot", "method", method, "error", err)
			continue
		}
		snapshots[string(method)] = path
	}
	return snapshots
}
