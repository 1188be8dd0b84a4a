package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cacheTTL is how long a loaded registry is trusted without re-reading the
// file: "cached in memory for 5 seconds".
const cacheTTL = 5 * time.Second

// Service owns one registry file's load/modify/save cycle. Every mutating
// operation holds mu across the entire load-modify-save cycle; read-only
// gets go through Load, which holds mu only around the cache fields.
type Service struct {
	layout Layout

	mu          sync.Mutex
	cached      *Registry
	cachedAt    time.Time
}

// NewService returns a registry service rooted at layout.
func NewService(layout Layout) *Service {
	return &Service{layout: layout}
}

// Load returns the current registry, using the 5s cache when fresh.
// mu is taken only to check the cache, so a cache hit waits for a save in
// progress but never reads the file; a miss reads it without holding mu.
func (s *Service) Load() (*Registry, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < cacheTTL {
		cached := s.cached
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	return s.loadLocked()
}

// loadLocked re-reads the registry file from disk (with backup recovery)
// and refreshes the cache. Must be called without mu held: it takes mu
// itself to update the cache fields.
func (s *Service) loadLocked() (*Registry, error) {
	reg, err := s.readFromDisk(s.layout.RegistryFile())
	if err != nil {
		// Main file missing or unreadable: try the backup before giving up.
		backup, backupErr := s.readFromDisk(s.layout.RegistryBackupFile())
		if backupErr != nil {
			if os.IsNotExist(err) {
				reg = NewRegistry(now())
			} else {
				return nil, fmt.Errorf("workspace: registry and backup both unreadable: %w", err)
			}
		} else {
			reg = backup
		}
	}

	s.mu.Lock()
	s.cached = reg
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return reg, nil
}

func (s *Service) readFromDisk(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("workspace: parse registry %s: %w", path, err)
	}
	if reg.ReferenceWorkspaces == nil {
		reg.ReferenceWorkspaces = make(map[string]*Entry)
	}
	if reg.OrphanedIndexes == nil {
		reg.OrphanedIndexes = make(map[string]*OrphanedIndex)
	}
	return &reg, nil
}

// Save performs an atomic-save cycle: serialize to a uniquely-named
// sibling temp file, rename over the target, read back to
// validate, and copy to .backup. Must be called with mu held by the
// caller's load-modify-save critical section (see WithRegistry).
func (s *Service) save(reg *Registry) error {
	reg.LastUpdated = now()

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: marshal registry: %w", err)
	}

	if err := os.MkdirAll(s.layout.JulieDir(), 0755); err != nil {
		return fmt.Errorf("workspace: mkdir %s: %w", s.layout.JulieDir(), err)
	}

	tmpPath := fmt.Sprintf("%s.%s.tmp", s.layout.RegistryFile(), uuid.NewString())
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("workspace: write temp registry: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := os.Rename(tmpPath, s.layout.RegistryFile()); err != nil {
		return fmt.Errorf("workspace: rename temp registry: %w", err)
	}

	// Read back to confirm the rename landed a parseable file.
	if _, err := s.readFromDisk(s.layout.RegistryFile()); err != nil {
		return fmt.Errorf("workspace: post-write validation failed: %w", err)
	}

	if err := copyFile(s.layout.RegistryFile(), s.layout.RegistryBackupFile()); err != nil {
		// Non-fatal: the save itself already succeeded, so a failed backup
		// copy is dropped; it is neither logged nor propagated.
		_ = err
	}

	s.cached = reg
	s.cachedAt = time.Now()
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// WithRegistry runs fn against the current registry under the service's
// mutex held for the whole load-modify-save cycle, then saves the
// (possibly modified) result — the critical concurrency rule.
// fn returning an error aborts the save.
func (s *Service) WithRegistry(fn func(reg *Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.loadLockedNoCache()
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return s.save(reg)
}

// loadLockedNoCache always re-reads from disk; used inside WithRegistry
// where correctness requires the freshest state regardless of the 5s
// cache window.
func (s *Service) loadLockedNoCache() (*Registry, error) {
	reg, err := s.readFromDisk(s.layout.RegistryFile())
	if err != nil {
		backup, backupErr := s.readFromDisk(s.layout.RegistryBackupFile())
		if backupErr != nil {
			if os.IsNotExist(err) {
				return NewRegistry(now()), nil
			}
			return nil, fmt.Errorf("workspace: registry and backup both unreadable: %w", err)
		}
		return backup, nil
	}
	return reg, nil
}

// now returns the current Unix timestamp in seconds. A package-level var
// so tests can substitute a fixed clock.
var now = func() int64 { return time.Now().Unix() }
