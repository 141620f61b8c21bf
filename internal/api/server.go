package api

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"newsharvest/internal/cache"
	"newsharvest/internal/config"
	"newsharvest/internal/dataset"
	"newsharvest/internal/enrich"
	"newsharvest/internal/models"
	"newsharvest/internal/runner"
	"newsharvest/internal/security"
	"newsharvest/internal/storage"
	"newsharvest/internal/web"
)

// DatasetEntry lists one dataset file available to the API
type DatasetEntry struct {
	Name string `json:"name"`
	storage.FileInfo
}

type Server struct {
	router        *gin.Engine
	cfg           *config.Config
	dataset       *dataset.Service
	enricher      *enrich.Enricher
	runner        *runner.Runner
	cacheManager  *cache.Manager
	swaggerServer *web.SwaggerServer
	limiter       *security.RateLimiter
	logger        *slog.Logger
}

// limiterIdle is how long an idle client keeps its rate limit state
const limiterIdle = 10 * time.Minute

func NewServer(cfg *config.Config, svc *dataset.Service, enricher *enrich.Enricher, run *runner.Runner, cacheManager *cache.Manager, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	limiter := security.SetupSecurityMiddleware(router, &cfg.Security, logger)

	server := &Server{
		router:        router,
		cfg:           cfg,
		dataset:       svc,
		enricher:      enricher,
		runner:        run,
		cacheManager:  cacheManager,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger, logger),
		limiter:       limiter,
		logger:        logger.With("component", "api"),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/articles", s.getArticles)
		api.GET("/stats", s.getStats)
		api.POST("/enrich", s.enrichCanonical)

		api.GET("/datasets", s.listDatasets)
		api.GET("/datasets/:name", s.getDataset)
		api.POST("/datasets/:name/enrich", s.enrichDataset)

		api.POST("/collect", s.startCollection)
		api.GET("/collect/status", s.getCollectionStatus)
	}

	s.swaggerServer.RegisterRoutes(s.router)
}

// Router exposes the configured engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext serves until ctx is cancelled, then shuts down
// gracefully. A clean shutdown returns context.Canceled.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return ctx.Err()
}

// pruneLimiter drops rate limit state for idle clients until ctx ends
func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.limiter.Cleanup(limiterIdle); removed > 0 {
				s.logger.Debug("pruned idle rate limiters", "removed", removed, "active", s.limiter.Len())
			}
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "newsharvest",
		"collecting": s.runner.IsRunning(),
		"cache":      s.cacheManager.Stats(),
	})
}

func (s *Server) getArticles(c *gin.Context) {
	s.queryDataset(c, s.dataset)
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.dataset.Stats()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) enrichCanonical(c *gin.Context) {
	s.runEnrichment(c, s.dataset)
}

func (s *Server) listDatasets(c *gin.Context) {
	entries := make([]DatasetEntry, 0)
	seen := make(map[string]bool)

	for _, dir := range s.datasetDirs() {
		paths, err := enrich.DiscoverCSV(dir)
		if err != nil {
			continue
		}
		for _, path := range paths {
			name := filepath.Base(path)
			if seen[name] {
				continue
			}
			info, err := storage.NewStorage(path).Info(path)
			if err != nil {
				continue
			}
			seen[name] = true
			entries = append(entries, DatasetEntry{Name: name, FileInfo: *info})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": entries,
		"count":    len(entries),
	})
}

func (s *Server) getDataset(c *gin.Context) {
	svc, ok := s.resolveDataset(c)
	if !ok {
		return
	}
	s.queryDataset(c, svc)
}

func (s *Server) enrichDataset(c *gin.Context) {
	svc, ok := s.resolveDataset(c)
	if !ok {
		return
	}
	s.runEnrichment(c, svc)
}

func (s *Server) startCollection(c *gin.Context) {
	if err := s.runner.Start(); err != nil {
		if errors.Is(err, runner.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Collection run started",
		"status":  "running",
	})
}

func (s *Server) getCollectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": s.runner.IsRunning(),
		"last":    s.runner.Last(),
	})
}

func (s *Server) queryDataset(c *gin.Context, svc *dataset.Service) {
	page, err := svc.Query(parseODataQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) runEnrichment(c *gin.Context, svc *dataset.Service) {
	report, err := s.enricher.Enrich(svc.Path())
	if err != nil {
		s.respondError(c, err)
		return
	}
	svc.Invalidate()
	c.JSON(http.StatusOK, report)
}

// datasetDirs lists the directories a dataset name may resolve into
func (s *Server) datasetDirs() []string {
	candidates := []string{
		filepath.Dir(s.cfg.Output.RawPath),
		s.cfg.Output.SnapshotDir,
		s.cfg.Enrich.Dir,
	}
	if s.cfg.Output.ProcessedPath != "" {
		candidates = append(candidates, filepath.Dir(s.cfg.Output.ProcessedPath))
	}

	var dirs []string
	seen := make(map[string]bool)
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (s *Server) resolveDataset(c *gin.Context) (*dataset.Service, bool) {
	name := filepath.Base(c.Param("name"))

	for _, dir := range s.datasetDirs() {
		path := filepath.Join(dir, name)
		if _, err := storage.NewStorage(path).Info(path); err == nil {
			return dataset.NewService(path, s.cacheManager, s.logger), true
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found: " + name})
	return nil, false
}

func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dataset.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseODataQuery(c *gin.Context) *models.ODataQuery {
	query := &models.ODataQuery{
		Filter: c.Query("$filter"),
		Select: parseSelectFields(c.Query("$select")),
	}

	// Parse search terms (comma-separated)
	if searchStr := c.Query("$search"); searchStr != "" {
		query.Search = parseSelectFields(searchStr)
	}

	if topStr := c.Query("$top"); topStr != "" {
		if top, err := strconv.Atoi(topStr); err == nil {
			query.Top = top
		}
	}

	if skipStr := c.Query("$skip"); skipStr != "" {
		if skip, err := strconv.Atoi(skipStr); err == nil {
			query.Skip = skip
		}
	}

	return query
}

// parseSelectFields splits a comma-separated parameter into trimmed,
// non-empty fields
func parseSelectFields(selectStr string) []string {
	if selectStr == "" {
		return nil
	}

	fields := strings.Split(selectStr, ",")
	result := make([]string, 0, len(fields))

	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
