package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"newsharvest/internal/models"
)

// SnapshotLayout is the timestamp suffix appended to snapshot file names
const SnapshotLayout = "20060102_150405"

// WriteResult describes one successful dataset write
type WriteResult struct {
	Canonical  string `json:"canonical"`
	Snapshot   string `json:"snapshot"`
	Rows       int    `json:"rows"`
	Duplicates int    `json:"duplicates"`
}

// Writer persists collected articles as a canonical dataset plus a
// timestamped snapshot
type Writer struct {
	store       Storage
	snapshotDir string
	now         func() time.Time
	logger      *slog.Logger
}

type WriterOption func(*Writer)

// WithSnapshotDir places snapshots in dir instead of next to the canonical file
func WithSnapshotDir(dir string) WriterOption {
	return func(w *Writer) { w.snapshotDir = dir }
}

func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// WithStorage pins the backend; by default it is chosen from the path
func WithStorage(store Storage) WriterOption {
	return func(w *Writer) { w.store = store }
}

func NewWriter(logger *slog.Logger, opts ...WriterOption) *Writer {
	w := &Writer{
		now:    time.Now,
		logger: logger.With("component", "writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Save deduplicates articles and writes them to path and to a snapshot.
// It returns false, without touching the filesystem, when there is nothing
// to save, and false after logging when any write fails.
func (w *Writer) Save(articles []models.Article, path string) bool {
	result, err := w.Write(articles, path)
	if err != nil {
		if errors.Is(err, models.ErrNoArticles) {
			w.logger.Warn("no articles to save", "path", path)
		} else {
			w.logger.Error("failed to save dataset", "path", path, "error", err)
		}
		return false
	}

	w.logger.Info("dataset saved",
		"path", result.Canonical,
		"snapshot", result.Snapshot,
		"rows", result.Rows,
		"duplicates_removed", result.Duplicates,
	)
	return true
}

// Write is Save with the outcome returned instead of logged
func (w *Writer) Write(articles []models.Article, path string) (*WriteResult, error) {
	if len(articles) == 0 {
		return nil, models.ErrNoArticles
	}

	unique, duplicates := Dedup(articles)
	table := ArticlesToTable(unique)
	store := w.storageFor(path)

	if err := store.Save(table, path); err != nil {
		return nil, err
	}

	snapshot := SnapshotPath(path, w.snapshotDir, w.now())
	if err := store.Save(table, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	return &WriteResult{
		Canonical:  path,
		Snapshot:   snapshot,
		Rows:       table.Len(),
		Duplicates: duplicates,
	}, nil
}

// SaveSnapshot writes articles only as a timestamped <name>_<ts>.csv file
// in the snapshot directory (or dir when none is configured)
func (w *Writer) SaveSnapshot(articles []models.Article, dir, name string) (string, error) {
	if len(articles) == 0 {
		return "", models.ErrNoArticles
	}
	if w.snapshotDir != "" {
		dir = w.snapshotDir
	}

	unique, _ := Dedup(articles)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, w.now().Format(SnapshotLayout)))
	if err := w.storageFor(path).Save(ArticlesToTable(unique), path); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) storageFor(path string) Storage {
	if w.store != nil {
		return w.store
	}
	return NewStorage(path)
}

// Dedup keeps the first article per url (or title when the url is empty),
// preserving input order. Articles with neither are always kept.
func Dedup(articles []models.Article) ([]models.Article, int) {
	seen := make(map[string]bool, len(articles))
	unique := make([]models.Article, 0, len(articles))

	for _, article := range articles {
		key := article.DedupKey()
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		unique = append(unique, article)
	}

	return unique, len(articles) - len(unique)
}

// SnapshotPath builds <dir>/<base>_<YYYYMMDD_HHMMSS><ext>. An empty dir
// means the canonical file's directory.
func SnapshotPath(path, dir string, ts time.Time) string {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(dir, base+"_"+ts.Format(SnapshotLayout)+ext)
}

// ArticlesToTable renders articles in the canonical column order
func ArticlesToTable(articles []models.Article) *Table {
	table := NewTable(models.ArticleColumns)
	for _, article := range articles {
		table.AppendRow(article.Row())
	}
	return table
}
