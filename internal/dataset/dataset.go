package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"newsharvest/internal/cache"
	"newsharvest/internal/enrich"
	"newsharvest/internal/models"
	"newsharvest/internal/odata"
	"newsharvest/internal/storage"
)

// searchColumns are matched by $search terms
var searchColumns = []string{
	models.ColumnTitle,
	models.ColumnDescription,
	models.ColumnText,
	models.ColumnSource,
	enrich.ColumnCleanedText,
}

// ErrInvalidQuery marks a $filter that cannot be parsed or evaluated
var ErrInvalidQuery = errors.New("invalid query")

// Service answers read queries against one persisted dataset. Loaded
// tables are cached until the file's modification time changes.
type Service struct {
	path         string
	store        storage.Storage
	cacheManager *cache.Manager
	filterParser *odata.FilterParser
	logger       *slog.Logger
}

func NewService(path string, cacheManager *cache.Manager, logger *slog.Logger) *Service {
	return &Service{
		path:         path,
		store:        storage.NewStorage(path),
		cacheManager: cacheManager,
		filterParser: odata.NewFilterParser(),
		logger:       logger.With("component", "dataset", "path", path),
	}
}

func (s *Service) Path() string { return s.path }

func (s *Service) load() (*storage.Table, *storage.FileInfo, error) {
	info, err := s.store.Info(s.path)
	if err != nil {
		return nil, nil, err
	}

	cacheKey := fmt.Sprintf("dataset:%s:%d", s.path, info.LastModified.UnixNano())
	if cached, found := s.cacheManager.Get(cacheKey); found {
		if table, ok := cached.(*storage.Table); ok {
			return table, info, nil
		}
	}

	table, err := s.store.Load(s.path)
	if err != nil {
		return nil, nil, err
	}
	s.cacheManager.Set(cacheKey, table, 0)
	s.logger.Debug("dataset loaded", "rows", table.Len())
	return table, info, nil
}

// Query applies $search, $filter, $skip, $top and $select in that order
func (s *Service) Query(query *models.ODataQuery) (*models.DatasetPage, error) {
	table, info, err := s.load()
	if err != nil {
		return nil, err
	}
	if query == nil {
		query = &models.ODataQuery{}
	}

	filterExpr, err := s.filterParser.Parse(query.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression: %v", ErrInvalidQuery, err)
	}

	var rows []map[string]string
	for i := 0; i < table.Len(); i++ {
		record := table.Record(i)

		if len(query.Search) > 0 && !matchesSearch(record, query.Search) {
			continue
		}

		matches, err := s.filterParser.Evaluate(filterExpr, odata.Row(record))
		if err != nil {
			return nil, fmt.Errorf("%w: filter evaluation: %v", ErrInvalidQuery, err)
		}
		if matches {
			rows = append(rows, record)
		}
	}
	total := len(rows)

	if query.Skip > 0 {
		if query.Skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[query.Skip:]
		}
	}
	if query.Top > 0 && query.Top < len(rows) {
		rows = rows[:query.Top]
	}

	columns := selectColumns(table.Columns, query.Select)
	if len(columns) < len(table.Columns) {
		rows = project(rows, columns)
	}
	if rows == nil {
		rows = []map[string]string{}
	}

	return &models.DatasetPage{
		Path:    s.path,
		Columns: columns,
		Rows:    rows,
		Count:   len(rows),
		Total:   total,
		Updated: info.LastModified,
	}, nil
}

// Stats summarizes the dataset by source and collection method
func (s *Service) Stats() (*models.DatasetStats, error) {
	table, info, err := s.load()
	if err != nil {
		return nil, err
	}

	stats := &models.DatasetStats{
		Path:         s.path,
		Rows:         table.Len(),
		Columns:      len(table.Columns),
		BySource:     make(map[string]int),
		ByMethod:     make(map[string]int),
		Enriched:     table.HasColumn(enrich.ColumnCleanedText),
		LastModified: info.LastModified,
	}

	for i := 0; i < table.Len(); i++ {
		if source := table.Get(i, models.ColumnSource); source != "" {
			stats.BySource[source]++
		}
		if method := table.Get(i, models.ColumnCollectionMethod); method != "" {
			stats.ByMethod[method]++
		}
		if ok, err := strconv.ParseBool(table.Get(i, enrich.ColumnHasFinancialTerms)); err == nil && ok {
			stats.WithFinancialTerm++
		}
	}

	return stats, nil
}

// Invalidate drops cached tables so the next read reloads the file
func (s *Service) Invalidate() {
	if info, err := s.store.Info(s.path); err == nil {
		s.cacheManager.Delete(fmt.Sprintf("dataset:%s:%d", s.path, info.LastModified.UnixNano()))
	}
}

func matchesSearch(record map[string]string, terms []string) bool {
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for _, column := range searchColumns {
			if strings.Contains(strings.ToLower(record[column]), term) {
				return true
			}
		}
	}
	return false
}

// selectColumns keeps the requested columns that exist, in table order.
// No valid selection means every column.
func selectColumns(columns, selected []string) []string {
	wanted := make(map[string]bool, len(selected))
	for _, name := range selected {
		wanted[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var out []string
	for _, column := range columns {
		if wanted[strings.ToLower(column)] {
			out = append(out, column)
		}
	}
	if len(out) == 0 {
		return columns
	}
	return out
}

func project(rows []map[string]string, columns []string) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		projected := make(map[string]string, len(columns))
		for _, column := range columns {
			projected[column] = row[column]
		}
		out[i] = projected
	}
	return out
}
