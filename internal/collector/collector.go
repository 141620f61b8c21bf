package collector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"newsharvest/internal/models"
)

// Collector produces normalized articles from one external source.
// A non-nil error reports why collection stopped early; any articles
// gathered before that point are still returned.
type Collector interface {
	Name() string
	Method() models.CollectionMethod
	Collect(ctx context.Context) ([]models.Article, error)
}

// Preflighter is implemented by collectors that can tell, without any
// network call, that Collect would fail straight away
type Preflighter interface {
	Preflight() error
}

// TextExtractor fetches full article text for thin items
type TextExtractor interface {
	Extract(ctx context.Context, url string) string
}

// Clock hands out non-decreasing timestamps for collected_at, even if
// the wall clock steps backwards during a run
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

// Pacer spaces out network calls by at least a fixed interval. Callers
// Wait before every call: the first Wait returns at once, each later one
// blocks until the interval has passed since the previous call began.
type Pacer struct {
	limiter *rate.Limiter
}

func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call may proceed or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
