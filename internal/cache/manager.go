// Package cache provides the offline asset cache: named cache generations
// plus an HTTP layer that serves requests through them.
package cache

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GenerationPrefix is the shared prefix of every cache generation name.
const GenerationPrefix = "safi-pwa-"

// Entry is one cached response.
type Entry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// FetchFunc retrieves an asset by path during precaching.
type FetchFunc func(ctx context.Context, path string) (Entry, error)

// Manager holds the cache generations. Exactly one generation is current;
// older generations survive until Activate sweeps them.
type Manager struct {
	logger *zap.Logger
	clock  func() time.Time

	mu      sync.RWMutex
	current string
	caches  map[string]map[string]Entry
}

// NewManager constructs an empty cache manager.
func NewManager(logger *zap.Logger, clock func() time.Time) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		logger: logger,
		clock:  func() time.Time { return clock().UTC() },
		caches: make(map[string]map[string]Entry),
	}
}

// Install opens the generation for the given version, precaches the core
// assets best-effort and makes the new generation current immediately. A
// failed asset fetch is logged and skipped, never aborts the install. The
// generation name is returned.
func (m *Manager) Install(ctx context.Context, version string, assets []string, fetch FetchFunc) string {
	name := GenerationPrefix + version

	m.mu.Lock()
	if _, ok := m.caches[name]; !ok {
		m.caches[name] = make(map[string]Entry)
	}
	m.current = name
	m.mu.Unlock()

	for _, path := range assets {
		if fetch == nil {
			break
		}
		entry, err := fetch(ctx, path)
		if err != nil {
			m.logger.Warn("precache asset skipped",
				zap.String("generation", name),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		m.Put(path, entry)
	}

	m.logger.Info("cache generation installed", zap.String("generation", name))
	return name
}

// Activate deletes every generation except the current one.
func (m *Manager) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.caches {
		if name != m.current {
			delete(m.caches, name)
			m.logger.Info("cache generation deleted", zap.String("generation", name))
		}
	}
}

// Current returns the name of the current generation, or "" before the first
// install.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Names lists the existing generation names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get looks the key up in the current generation.
func (m *Manager) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	generation, ok := m.caches[m.current]
	if !ok {
		return Entry{}, false
	}
	entry, ok := generation[key]
	return entry, ok
}

// Put stores the entry under the key in the current generation. Writes race
// freely; the last one wins.
func (m *Manager) Put(key string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	generation, ok := m.caches[m.current]
	if !ok {
		return
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = m.clock()
	}
	generation[key] = entry
}

// Len reports the entry count of the current generation.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.caches[m.current])
}
