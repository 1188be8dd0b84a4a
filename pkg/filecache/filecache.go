// Package filecache provides byte-offset code extraction for get_symbols's
// mode=full outline, backed by memory-mapped files so that repeated
// StartByte:EndByte slicing across many symbols in the same file costs O(1)
// per symbol rather than one os.ReadFile per file: mmap a source file once,
// slice it by byte range, evict on Close.
package filecache

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// Config bounds how much of a workspace's source tree a Cache will keep
// mapped at once.
type Config struct {
	// MaxFiles caps the number of distinct files kept mapped; 0 is
	// unlimited.
	MaxFiles int
	// MaxMemoryMB caps total virtual memory mapped, in megabytes; 0 is
	// unlimited. This bounds address space, not resident memory — the OS
	// only pages in the bytes a caller actually slices.
	MaxMemoryMB int
	Logger      *slog.Logger
}

// DefaultConfig covers workspaces up to a few tens of thousands of files.
func DefaultConfig() Config {
	return Config{MaxFiles: 10000, MaxMemoryMB: 2048}
}

type mappedFile struct {
	data mmap.MMap
	file *os.File // nil when data came from the os.ReadFile fallback
	size int64
}

// Cache memory-maps source files on first access and serves byte-range
// reads against the mapping thereafter. Safe for concurrent use.
type Cache struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	mapped  map[string]*mappedFile
	evicted int64 // MmapFailures + ReadFile fallbacks
}

// New builds a Cache. A zero Config behaves as DefaultConfig.
func New(cfg Config) *Cache {
	if cfg.MaxFiles == 0 && cfg.MaxMemoryMB == 0 {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache{cfg: cfg, logger: cfg.Logger, mapped: make(map[string]*mappedFile)}
}

// FetchCode returns file's [startByte:endByte) span, mapping the file on
// first access. A nil *Cache falls back to a plain os.ReadFile — callers
// may pass a nil Cache to disable mapping (e.g. in tests) without a
// separate code path.
func (c *Cache) FetchCode(path string, startByte, endByte uint32) (string, error) {
	if c == nil {
		return readRange(path, startByte, endByte)
	}

	mf, err := c.get(path)
	if err != nil {
		return "", err
	}
	if endByte <= startByte || int64(endByte) > mf.size {
		return "", fmt.Errorf("filecache: invalid byte range [%d:%d) for %s (size %d)", startByte, endByte, path, mf.size)
	}
	if mf.data == nil {
		return "", nil
	}
	return string(mf.data[startByte:endByte]), nil
}

func (c *Cache) get(path string) (*mappedFile, error) {
	c.mu.RLock()
	mf, ok := c.mapped[path]
	c.mu.RUnlock()
	if ok {
		return mf, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if mf, ok := c.mapped[path]; ok {
		return mf, nil
	}

	if c.cfg.MaxFiles > 0 && len(c.mapped) >= c.cfg.MaxFiles {
		return nil, fmt.Errorf("filecache: limit reached (%d files)", c.cfg.MaxFiles)
	}

	mf, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.mapped[path] = mf
	return mf, nil
}

func (c *Cache) load(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filecache: open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filecache: stat %s: %w", path, err)
	}
	if stat.Size() == 0 {
		f.Close()
		return &mappedFile{size: 0}, nil
	}

	if c.cfg.MaxMemoryMB > 0 {
		if over := c.totalMappedMBLocked() + float64(stat.Size())/(1<<20); over > float64(c.cfg.MaxMemoryMB) {
			f.Close()
			return nil, fmt.Errorf("filecache: memory limit reached (%.1fMB > %dMB)", over, c.cfg.MaxMemoryMB)
		}
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		c.logger.Warn("filecache: mmap failed, falling back to ReadFile", "path", path, "error", err)
		c.evicted++
		raw, rerr := os.ReadFile(path)
		f.Close()
		if rerr != nil {
			return nil, fmt.Errorf("filecache: mmap failed (%v) and fallback read failed: %w", err, rerr)
		}
		return &mappedFile{data: mmap.MMap(raw), size: int64(len(raw))}, nil
	}
	return &mappedFile{data: data, file: f, size: stat.Size()}, nil
}

func (c *Cache) totalMappedMBLocked() float64 {
	var total int64
	for _, mf := range c.mapped {
		total += mf.size
	}
	return float64(total) / (1 << 20)
}

// Size returns the number of currently mapped files.
func (c *Cache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mapped)
}

// Close unmaps every cached file. Must be called before process exit to
// release the mappings and file descriptors cleanly.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, mf := range c.mapped {
		if mf.file != nil {
			if err := mf.data.Unmap(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("filecache: unmap %s: %w", path, err)
			}
			if err := mf.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("filecache: close %s: %w", path, err)
			}
		}
	}
	c.mapped = make(map[string]*mappedFile)
	return firstErr
}

func readRange(path string, startByte, endByte uint32) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if endByte <= startByte || int(endByte) > len(data) {
		return "", fmt.Errorf("filecache: invalid byte range [%d:%d) for %s (size %d)", startByte, endByte, path, len(data))
	}
	return string(data[startByte:endByte]), nil
}
