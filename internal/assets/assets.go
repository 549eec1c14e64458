// Package assets resolves and caches voxel model and palette files.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/internal/logger"
	"github.com/Faultbox/voxkit/pkg/formats"
)

// ErrNotFound is returned when no source holds a file.
var ErrNotFound = errors.New("asset not found")

// Source is a place assets are read from.
type Source interface {
	Read(name string) ([]byte, error)
	Close() error
}

// DirSource reads assets below a directory.
type DirSource struct {
	root string
	fsys fs.FS
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &DirSource{root: dir, fsys: os.DirFS(dir)}, nil
}

// Read reads a slash-separated path relative to the root.
func (s *DirSource) Read(name string) ([]byte, error) {
	return fs.ReadFile(s.fsys, filepath.ToSlash(filepath.Clean(name)))
}

// Close is a no-op; directories hold no handles.
func (s *DirSource) Close() error { return nil }

func (s *DirSource) String() string { return s.root }

// Manager loads assets from ordered sources.
type Manager struct {
	sources []Source
	cache   *Cache
	log     *zap.Logger
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddDir adds a directory to the search path.
func (m *Manager) AddDir(dir string) error {
	src, err := NewDirSource(dir)
	if err != nil {
		return fmt.Errorf("adding search dir %s: %w", dir, err)
	}
	m.AddSource(src)
	return nil
}

// AddSource adds a source to the manager.
// Sources are searched in reverse order (last added = highest priority).
func (m *Manager) AddSource(src Source) {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()
}

// Load returns the contents of name. Absolute paths are read directly;
// relative paths are resolved against the sources.
func (m *Manager) Load(name string) ([]byte, error) {
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	if filepath.IsAbs(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return nil, err
		}
		m.cache.Set(name, data)
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		data, err := m.sources[i].Read(name)
		if err == nil {
			m.log.Debug("loaded asset", zap.String("name", name), zap.Int("bytes", len(data)))
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// LoadVOX loads and decodes a .vox file.
func (m *Manager) LoadVOX(name string) (*formats.VOX, error) {
	data, err := m.Load(name)
	if err != nil {
		return nil, err
	}
	vox, err := formats.ParseVOXBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return vox, nil
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close closes all sources.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, src := range m.sources {
		if err := src.Close(); err != nil {
			m.log.Warn("closing asset source", zap.Error(err))
		}
	}
	m.sources = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
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
