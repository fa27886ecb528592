// Package assets locates source mesh files and caches their contents.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
)

// ErrNotFound is returned when a source reference matches no file.
var ErrNotFound = errors.New("source file not found")

// Manager resolves source references against a list of root directories and
// keeps file contents in memory between loads.
type Manager struct {
	roots []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddRoot adds a directory to search for relative references. A leading ~ is
// expanded to the home directory.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return fmt.Errorf("expanding root %s: %w", dir, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, abs)
	m.mu.Unlock()

	return nil
}

// Roots returns the search roots in the order they were added.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roots...)
}

// Resolve turns a source reference into a file path. Absolute references (after ~
// expansion) are used as is. Relative ones are tried against base first, then
// against the roots, then against the working directory.
func (m *Manager) Resolve(ref, base string) (string, error) {
	expanded, err := homedir.Expand(ref)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", ref, err)
	}
	if filepath.IsAbs(expanded) {
		if !isFile(expanded) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return expanded, nil
	}

	if base != "" {
		if p := filepath.Join(base, expanded); isFile(p) {
			return p, nil
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		if p := filepath.Join(m.roots[i], expanded); isFile(p) {
			return p, nil
		}
	}

	if isFile(expanded) {
		return expanded, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// Load reads a resolved file, serving repeated loads from the cache.
func (m *Manager) Load(path string) ([]byte, error) {
	if data, ok := m.cache.Get(path); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m.cache.Set(path, data)
	return data, nil
}

// Cache returns the manager's file cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close forgets all roots and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
