package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlaceholderAPIKey is the sample key shipped in example configs
const PlaceholderAPIKey = "your_key_here"

// FeedConfig represents a single named RSS/Atom feed
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// APIConfig configures the paginated search provider
type APIConfig struct {
	Key         string        `yaml:"key"`
	Endpoint    string        `yaml:"endpoint"`
	Language    string        `yaml:"language"`
	PageSize    int           `yaml:"page_size"`
	Lookback    time.Duration `yaml:"lookback"`
	Timeout     time.Duration `yaml:"timeout"`
	DeepExtract bool          `yaml:"deep_extract"`
}

// LimitsConfig caps how much each source may contribute
type LimitsConfig struct {
	PerQuery int `yaml:"per_query"`
	PerFeed  int `yaml:"per_feed"`
}

// DelayConfig holds the courtesy pauses between network calls
type DelayConfig struct {
	Item  time.Duration `yaml:"item"`
	Page  time.Duration `yaml:"page"`
	Query time.Duration `yaml:"query"`
	Feed  time.Duration `yaml:"feed"`
}

// ExtractConfig configures full-text extraction from article pages
type ExtractConfig struct {
	MinLength int           `yaml:"min_length"`
	MaxChars  int           `yaml:"max_chars"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	Feeds     bool          `yaml:"feeds"`
}

// OutputConfig controls where collected datasets land
type OutputConfig struct {
	RawPath       string `yaml:"raw_path"`
	ProcessedPath string `yaml:"processed_path"`
	SnapshotDir   string `yaml:"snapshot_dir"`
	SplitByMethod bool   `yaml:"split_by_method"`
}

// EnrichConfig lists the datasets the enricher works on
type EnrichConfig struct {
	Paths   []string `yaml:"paths"`
	Dir     string   `yaml:"dir"`
	Version string   `yaml:"version"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableRateLimit       bool     `yaml:"enable_rate_limit"`
	RateLimitPerSecond    float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst        int      `yaml:"rate_limit_burst"`
	EnableCORS            bool     `yaml:"enable_cors"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
	EnableSecurityHeaders bool     `yaml:"enable_security_headers"`
	MaxRequestSize        int64    `yaml:"max_request_size"`
	EnableRequestID       bool     `yaml:"enable_request_id"`
}

type Config struct {
	Port          int            `yaml:"port"`
	LogLevel      string         `yaml:"log_level"`
	EnableSwagger bool           `yaml:"enable_swagger"`
	API           APIConfig      `yaml:"api"`
	Queries       []string       `yaml:"queries"`
	Feeds         []FeedConfig   `yaml:"feeds"`
	Limits        LimitsConfig   `yaml:"limits"`
	Delays        DelayConfig    `yaml:"delays"`
	Extract       ExtractConfig  `yaml:"extract"`
	Output        OutputConfig   `yaml:"output"`
	Enrich        EnrichConfig   `yaml:"enrich"`
	Security      SecurityConfig `yaml:"security"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. An empty path falls back to
// NEWSHARVEST_CONFIG.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv("NEWSHARVEST_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasAPIKey reports whether a usable search API key is configured
func (c *Config) HasAPIKey() bool {
	return ValidAPIKey(c.API.Key)
}

// ValidAPIKey rejects empty and placeholder keys
func ValidAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != PlaceholderAPIKey
}

// Validate rejects settings the collectors cannot run with
func (c *Config) Validate() error {
	if c.Limits.PerQuery < 0 || c.Limits.PerFeed < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.API.PageSize < 0 || c.API.PageSize > MaxPageSize {
		return fmt.Errorf("api.page_size must be between 0 and %d", MaxPageSize)
	}
	if c.Output.RawPath == "" {
		return fmt.Errorf("output.raw_path is required")
	}
	for i, feed := range c.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feed %d (%s) has no url", i, feed.Name)
		}
	}
	return nil
}

// MaxPageSize is the provider's per-page ceiling
const MaxPageSize = 100

func defaultConfig() *Config {
	return &Config{
		Port:          8080,
		LogLevel:      "info",
		EnableSwagger: true,
		API: APIConfig{
			Endpoint: "https://newsapi.org/v2/everything",
			Language: "en",
			Lookback: 0,
			Timeout:  10 * time.Second,
		},
		Queries: getDefaultQueries(),
		Feeds:   getDefaultFeeds(),
		Limits: LimitsConfig{
			PerQuery: 100,
			PerFeed:  20,
		},
		Delays: DelayConfig{
			Item:  time.Second,
			Page:  time.Second,
			Query: time.Second,
			Feed:  1500 * time.Millisecond,
		},
		Extract: ExtractConfig{
			MinLength: 100,
			MaxChars:  10000,
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			CacheTTL:  time.Hour,
		},
		Output: OutputConfig{
			RawPath:       "data/raw/financial_news.csv",
			ProcessedPath: "data/processed/financial_news_processed.csv",
			SnapshotDir:   "data/raw",
		},
		Enrich: EnrichConfig{
			Dir:     "data/raw",
			Version: "1.0",
		},
		Security: SecurityConfig{
			EnableRateLimit:       true,
			RateLimitPerSecond:    10.0,
			RateLimitBurst:        20,
			EnableCORS:            true,
			AllowedOrigins:        []string{"*"},
			EnableSecurityHeaders: true,
			MaxRequestSize:        10 << 20, // 10MB
			EnableRequestID:       true,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.EnableSwagger = getEnvAsBool("ENABLE_SWAGGER", cfg.EnableSwagger)

	cfg.API.Key = getEnv("NEWS_API_KEY", cfg.API.Key)
	cfg.API.Endpoint = getEnv("NEWS_API_ENDPOINT", cfg.API.Endpoint)
	cfg.API.PageSize = getEnvAsInt("NEWS_API_PAGE_SIZE", cfg.API.PageSize)
	cfg.API.Lookback = getEnvAsDuration("NEWS_API_LOOKBACK", cfg.API.Lookback)
	cfg.API.DeepExtract = getEnvAsBool("NEWS_API_DEEP_EXTRACT", cfg.API.DeepExtract)
	cfg.Queries = getEnvAsStringSlice("NEWS_QUERIES", cfg.Queries)

	if feeds := loadFeedsFromEnv(); len(feeds) > 0 {
		cfg.Feeds = feeds
	}

	cfg.Limits.PerQuery = getEnvAsInt("MAX_ARTICLES_PER_QUERY", cfg.Limits.PerQuery)
	cfg.Limits.PerFeed = getEnvAsInt("MAX_ARTICLES_PER_FEED", cfg.Limits.PerFeed)

	cfg.Delays.Item = getEnvAsDuration("DELAY_ITEM", cfg.Delays.Item)
	cfg.Delays.Page = getEnvAsDuration("DELAY_PAGE", cfg.Delays.Page)
	cfg.Delays.Query = getEnvAsDuration("DELAY_QUERY", cfg.Delays.Query)
	cfg.Delays.Feed = getEnvAsDuration("DELAY_FEED", cfg.Delays.Feed)

	cfg.Extract.MinLength = getEnvAsInt("EXTRACT_MIN_LENGTH", cfg.Extract.MinLength)
	cfg.Extract.Timeout = getEnvAsDuration("EXTRACT_TIMEOUT", cfg.Extract.Timeout)
	cfg.Extract.Feeds = getEnvAsBool("EXTRACT_FEEDS", cfg.Extract.Feeds)

	cfg.Output.RawPath = getEnv("RAW_DATA_PATH", cfg.Output.RawPath)
	cfg.Output.ProcessedPath = getEnv("PROCESSED_DATA_PATH", cfg.Output.ProcessedPath)
	cfg.Output.SnapshotDir = getEnv("SNAPSHOT_DIR", cfg.Output.SnapshotDir)
	cfg.Output.SplitByMethod = getEnvAsBool("SPLIT_BY_METHOD", cfg.Output.SplitByMethod)

	cfg.Enrich.Dir = getEnv("ENRICH_DIR", cfg.Enrich.Dir)

	cfg.Security.EnableRateLimit = getEnvAsBool("ENABLE_RATE_LIMIT", cfg.Security.EnableRateLimit)
	cfg.Security.RateLimitPerSecond = getEnvAsFloat("RATE_LIMIT_PER_SECOND", cfg.Security.RateLimitPerSecond)
	cfg.Security.RateLimitBurst = getEnvAsInt("RATE_LIMIT_BURST", cfg.Security.RateLimitBurst)
	cfg.Security.EnableCORS = getEnvAsBool("ENABLE_CORS", cfg.Security.EnableCORS)
	cfg.Security.AllowedOrigins = getEnvAsStringSlice("ALLOWED_ORIGINS", cfg.Security.AllowedOrigins)
	cfg.Security.EnableSecurityHeaders = getEnvAsBool("ENABLE_SECURITY_HEADERS", cfg.Security.EnableSecurityHeaders)
	cfg.Security.MaxRequestSize = getEnvAsInt64("MAX_REQUEST_SIZE", cfg.Security.MaxRequestSize)
	cfg.Security.EnableRequestID = getEnvAsBool("ENABLE_REQUEST_ID", cfg.Security.EnableRequestID)
}

// loadFeedsFromEnv reads FEED_<NAME>=<url> variables, sorted by name
func loadFeedsFromEnv() []FeedConfig {
	var feeds []FeedConfig

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "FEED_") {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			continue
		}

		name := strings.TrimPrefix(parts[0], "FEED_")
		name = strings.ReplaceAll(name, "_", " ")

		feeds = append(feeds, FeedConfig{
			Name: name,
			URL:  strings.TrimSpace(parts[1]),
		})
	}

	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Name < feeds[j].Name })
	return feeds
}

func getDefaultQueries() []string {
	return []string{
		"stock market",
		"federal reserve interest rates",
		"corporate earnings",
		"inflation economy",
		"mergers and acquisitions",
	}
}

func getDefaultFeeds() []FeedConfig {
	return []FeedConfig{
		{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex"},
		{Name: "Reuters Business", URL: "http://feeds.reuters.com/reuters/businessNews"},
		{Name: "CNBC", URL: "https://www.cnbc.com/id/10001147/device/rss/rss.html"},
		{Name: "Bloomberg Markets", URL: "https://feeds.bloomberg.com/markets/news.rss"},
		{Name: "Financial Times", URL: "https://www.ft.com/?format=rss"},
		{Name: "WSJ Markets", URL: "https://feeds.a.dj.com/rss/RSSMarketsMain.xml"},
	}
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		items := strings.Split(val, ",")
		result := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
		return result
	}
	return defaultVal
}
