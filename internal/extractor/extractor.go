package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"newsharvest/internal/cache"
	"newsharvest/internal/config"
	"newsharvest/internal/models"
)

// Method is one strategy for turning a page URL into plain text
type Method interface {
	Name() string
	Extract(ctx context.Context, url string) (string, error)
}

// Step pairs a method with the minimum length its output must exceed
type Step struct {
	Method    Method
	MinLength int
}

// Extractor runs an ordered fallback chain and never fails: when every
// step fails it returns "" and the caller substitutes its own fallback
type Extractor struct {
	steps    []Step
	maxChars int
	cache    *cache.Manager
	logger   *slog.Logger
}

// New builds the default chain: article-body parse, then a stripped
// whole-page fetch
func New(cfg config.ExtractConfig, cacheManager *cache.Manager, logger *slog.Logger) *Extractor {
	return NewWithSteps(cfg.MaxChars, cacheManager, logger,
		Step{Method: NewArticleMethod(cfg.UserAgent, cfg.Timeout), MinLength: cfg.MinLength},
		Step{Method: NewPageMethod(cfg.UserAgent, cfg.Timeout)},
	)
}

func NewWithSteps(maxChars int, cacheManager *cache.Manager, logger *slog.Logger, steps ...Step) *Extractor {
	return &Extractor{
		steps:    steps,
		maxChars: maxChars,
		cache:    cacheManager,
		logger:   logger.With("component", "extractor"),
	}
}

// Extract returns the best available text for url, or "".
// Each URL is attempted at most once per cache lifetime.
func (e *Extractor) Extract(ctx context.Context, url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	if e.cache != nil {
		if text, found := e.cache.Lookup(url); found {
			return text
		}
	}

	text := e.run(ctx, url)

	if e.cache != nil {
		e.cache.Store(url, text)
	}
	return text
}

func (e *Extractor) run(ctx context.Context, url string) string {
	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("extraction cancelled", "url", url, "error", err)
			return ""
		}

		text, err := step.Method.Extract(ctx, url)
		if err == nil {
			text = normalizeSpace(text)
			if text == "" || utf8.RuneCountInString(text) <= step.MinLength {
				err = fmt.Errorf("%w: %d chars", models.ErrInsufficientText, utf8.RuneCountInString(text))
			}
		}

		if err != nil {
			if errors.Is(err, models.ErrInsufficientText) {
				e.logger.Debug("extraction step insufficient", "url", url, "method", step.Method.Name(), "error", err)
			} else {
				e.logger.Warn("extraction step failed", "url", url, "method", step.Method.Name(), "error", err)
			}
			continue
		}

		return truncate(text, e.maxChars)
	}

	e.logger.Warn("all extraction methods failed", "url", url)
	return ""
}

// IsThinContent reports whether provider content is too short to keep:
// empty, truncated by the provider, or not longer than minLength
func IsThinContent(content string, minLength int) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return true
	}
	if truncationMarker.MatchString(content) {
		return true
	}
	return utf8.RuneCountInString(content) <= minLength
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
