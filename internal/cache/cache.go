package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Stats reports memo usage for the run summary
type Stats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Manager memoizes extracted page text by URL so that each page is
// fetched at most once per run. Failed extractions are stored as "".
// Get and Set hold arbitrary values, such as loaded datasets.
type Manager struct {
	cache  *cache.Cache
	mu     sync.RWMutex
	hits   int
	misses int
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func key(url string) string {
	return "text:" + strings.TrimSpace(url)
}

// Lookup returns the memoized text and whether the URL was seen before
func (m *Manager) Lookup(url string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, found := m.cache.Get(key(url))
	if !found {
		m.misses++
		return "", false
	}
	m.hits++
	text, _ := value.(string)
	return text, true
}

// Store records the extraction outcome for url
func (m *Manager) Store(url, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key(url), text, cache.DefaultExpiration)
}

func (m *Manager) Forget(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key(url))
}

func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
	m.hits, m.misses = 0, 0
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Entries: m.cache.ItemCount(),
		Hits:    m.hits,
		Misses:  m.misses,
	}
}

// Get returns any value stored under key with Set
func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.Get(key)
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl == 0 {
		ttl = cache.DefaultExpiration
	}
	m.cache.Set(key, value, ttl)
}

func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
}
