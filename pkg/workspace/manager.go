package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// orphanGracePeriodSeconds is how long an index directory with no matching
// registry entry is tolerated before being eligible for cleanup, per
// the orphan-detection rule.
const orphanGracePeriodSeconds = 24 * 60 * 60

// Manager implements the workspace lifecycle: register/unregister,
// access-time/statistics bookkeeping, and the TTL/LRU/orphan cleanup
// sweeps.
type Manager struct {
	layout  Layout
	service *Service
	logger  *slog.Logger
}

// NewManager returns a lifecycle manager rooted at root.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	layout := NewLayout(root)
	return &Manager{layout: layout, service: NewService(layout), logger: logger}
}

// Layout exposes the manager's directory layout.
func (m *Manager) Layout() Layout { return m.layout }

// RegisterPrimary registers (or re-validates) the primary workspace for
// path, creating its index directories. Primary entries never expire.
func (m *Manager) RegisterPrimary(path string) (*Entry, error) {
	return m.register(path, TypePrimary)
}

// RegisterReference registers path as a reference workspace, expiring
// after the registry's configured default TTL (7 days).
func (m *Manager) RegisterReference(path string) (*Entry, error) {
	return m.register(path, TypeReference)
}

// RegisterSession registers path as a short-lived session workspace,
// expiring after SessionTTLSeconds (24h).
func (m *Manager) RegisterSession(path string) (*Entry, error) {
	return m.register(path, TypeSession)
}

func (m *Manager) register(path string, typ Type) (*Entry, error) {
	id := GenerateID(path)
	nowTs := now()

	var result *Entry
	err := m.service.WithRegistry(func(reg *Registry) error {
		existing := lookupEntry(reg, id)
		if existing != nil {
			existing.LastAccessed = nowTs
			existing.Status = StatusActive
			result = existing
			return nil
		}

		entry := &Entry{
			ID:              id,
			OriginalPath:    path,
			DirectoryName:   filepath.Base(path),
			DisplayName:     filepath.Base(path),
			WorkspaceType:   typ,
			CreatedAt:       nowTs,
			LastAccessed:    nowTs,
			Status:          StatusActive,
			EmbeddingStatus: EmbeddingNotStarted,
		}
		switch typ {
		case TypePrimary:
			entry.ExpiresAt = nil
			reg.PrimaryWorkspace = entry
		case TypeReference:
			exp := nowTs + reg.Config.DefaultTTLSeconds
			entry.ExpiresAt = &exp
			reg.ReferenceWorkspaces[id] = entry
		case TypeSession:
			exp := nowTs + SessionTTLSeconds
			entry.ExpiresAt = &exp
			reg.ReferenceWorkspaces[id] = entry
		}
		result = entry
		recomputeStatistics(reg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{
		filepath.Dir(m.layout.DBPath(id)),
		m.layout.VectorsDir(id),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("workspace: create index dirs for %s: %w", id, err)
		}
	}

	return result, nil
}

// Unregister removes a workspace entry (reference or session) and deletes
// its index directory. The primary workspace cannot be unregistered this
// way — see ForceReindexPrimary for the primary's isolated reset path.
func (m *Manager) Unregister(id string) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		if reg.PrimaryWorkspace != nil && reg.PrimaryWorkspace.ID == id {
			return fmt.Errorf("workspace: cannot unregister the primary workspace")
		}
		delete(reg.ReferenceWorkspaces, id)
		recomputeStatistics(reg)
		return os.RemoveAll(m.layout.IndexDir(id))
	})
}

// Get returns the workspace entry by id, or nil if not found.
func (m *Manager) Get(id string) (*Entry, error) {
	reg, err := m.service.Load()
	if err != nil {
		return nil, err
	}
	return lookupEntry(reg, id), nil
}

// GetByPath resolves path's deterministic id and returns its entry.
func (m *Manager) GetByPath(path string) (*Entry, error) {
	return m.Get(GenerateID(path))
}

// All returns every registered workspace entry (primary, references and
// sessions), most recently accessed first.
func (m *Manager) All() ([]*Entry, error) {
	reg, err := m.service.Load()
	if err != nil {
		return nil, err
	}
	var out []*Entry
	if reg.PrimaryWorkspace != nil {
		out = append(out, reg.PrimaryWorkspace)
	}
	for _, e := range reg.ReferenceWorkspaces {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAccessed > out[j].LastAccessed })
	return out, nil
}

// UpdateLastAccessed bumps id's last-access timestamp.
func (m *Manager) UpdateLastAccessed(id string) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		e := lookupEntry(reg, id)
		if e == nil {
			return fmt.Errorf("workspace: unknown workspace %s", id)
		}
		e.LastAccessed = now()
		return nil
	})
}

// UpdateStatistics records a fresh symbol/file count for id after indexing.
func (m *Manager) UpdateStatistics(id string, symbolCount, fileCount int) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		e := lookupEntry(reg, id)
		if e == nil {
			return fmt.Errorf("workspace: unknown workspace %s", id)
		}
		e.SymbolCount = symbolCount
		e.FileCount = fileCount
		recomputeStatistics(reg)
		return nil
	})
}

// UpdateIndexSize records id's on-disk index size.
func (m *Manager) UpdateIndexSize(id string, bytes int64) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		e := lookupEntry(reg, id)
		if e == nil {
			return fmt.Errorf("workspace: unknown workspace %s", id)
		}
		e.IndexSizeBytes = bytes
		recomputeStatistics(reg)
		return nil
	})
}

// UpdateEmbeddingStatus records id's vector-index readiness.
func (m *Manager) UpdateEmbeddingStatus(id string, status EmbeddingStatus) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		e := lookupEntry(reg, id)
		if e == nil {
			return fmt.Errorf("workspace: unknown workspace %s", id)
		}
		e.EmbeddingStatus = status
		return nil
	})
}

func lookupEntry(reg *Registry, id string) *Entry {
	if reg.PrimaryWorkspace != nil && reg.PrimaryWorkspace.ID == id {
		return reg.PrimaryWorkspace
	}
	return reg.ReferenceWorkspaces[id]
}

func recomputeStatistics(reg *Registry) {
	stats := Statistics{LastCleanup: reg.Statistics.LastCleanup}
	if reg.PrimaryWorkspace != nil {
		stats.TotalWorkspaces++
		stats.TotalIndexSizeBytes += reg.PrimaryWorkspace.IndexSizeBytes
		stats.TotalSymbols += reg.PrimaryWorkspace.SymbolCount
	}
	for _, e := range reg.ReferenceWorkspaces {
		stats.TotalWorkspaces++
		stats.TotalIndexSizeBytes += e.IndexSizeBytes
		stats.TotalSymbols += e.SymbolCount
	}
	stats.TotalOrphans = len(reg.OrphanedIndexes)
	reg.Statistics = stats
}

// CleanupResult tallies a ComprehensiveCleanup pass.
type CleanupResult struct {
	ExpiredRemoved int
	EvictedForSize int
	OrphansRemoved int
}

// ComprehensiveCleanup runs the ordered TTL → LRU → orphan sweep used for
// periodic maintenance.
func (m *Manager) ComprehensiveCleanup() (CleanupResult, error) {
	var result CleanupResult

	expired, err := m.cleanupExpired()
	if err != nil {
		return result, err
	}
	result.ExpiredRemoved = expired

	evicted, err := m.enforceSizeLimit()
	if err != nil {
		return result, err
	}
	result.EvictedForSize = evicted

	orphans, err := m.cleanupOrphans()
	if err != nil {
		return result, err
	}
	result.OrphansRemoved = orphans

	_ = m.service.WithRegistry(func(reg *Registry) error {
		reg.Statistics.LastCleanup = now()
		return nil
	})

	return result, nil
}

// cleanupExpired deletes reference/session entries whose TTL has elapsed.
// The primary workspace is never subject to TTL.
func (m *Manager) cleanupExpired() (int, error) {
	var toDelete []string
	nowTs := now()

	err := m.service.WithRegistry(func(reg *Registry) error {
		for id, e := range reg.ReferenceWorkspaces {
			if e.IsExpired(nowTs) {
				toDelete = append(toDelete, id)
			}
		}
		for _, id := range toDelete {
			delete(reg.ReferenceWorkspaces, id)
		}
		if len(toDelete) > 0 {
			recomputeStatistics(reg)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range toDelete {
		if rmErr := os.RemoveAll(m.layout.IndexDir(id)); rmErr != nil {
			m.logger.Warn("cleanup: failed to remove expired index dir", "id", id, "error", rmErr)
		}
	}
	return len(toDelete), nil
}

// enforceSizeLimit evicts reference/session workspaces by ascending
// last_accessed (LRU) until total index size is back under the
// registry's max_total_size_bytes. The primary workspace is never evicted.
func (m *Manager) enforceSizeLimit() (int, error) {
	var toDelete []string

	err := m.service.WithRegistry(func(reg *Registry) error {
		if reg.Statistics.TotalIndexSizeBytes <= reg.Config.MaxTotalSizeBytes {
			return nil
		}

		var candidates []*Entry
		for _, e := range reg.ReferenceWorkspaces {
			candidates = append(candidates, e)
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].LastAccessed < candidates[j].LastAccessed
		})

		total := reg.Statistics.TotalIndexSizeBytes
		for _, e := range candidates {
			if total <= reg.Config.MaxTotalSizeBytes {
				break
			}
			total -= e.IndexSizeBytes
			toDelete = append(toDelete, e.ID)
			delete(reg.ReferenceWorkspaces, e.ID)
		}
		if len(toDelete) > 0 {
			recomputeStatistics(reg)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range toDelete {
		if rmErr := os.RemoveAll(m.layout.IndexDir(id)); rmErr != nil {
			m.logger.Warn("cleanup: failed to remove evicted index dir", "id", id, "error", rmErr)
		}
	}
	return len(toDelete), nil
}

// DetectOrphans scans indexes/* for directories with no matching registry
// entry, recording each newly found one in OrphanedIndexes with deletion
// scheduled 24h after discovery.
func (m *Manager) DetectOrphans() (int, error) {
	dirEntries, err := os.ReadDir(m.layout.IndexesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("workspace: read indexes dir: %w", err)
	}

	nowTs := now()
	found := 0

	err = m.service.WithRegistry(func(reg *Registry) error {
		known := map[string]bool{}
		if reg.PrimaryWorkspace != nil {
			known[reg.PrimaryWorkspace.ID] = true
		}
		for id := range reg.ReferenceWorkspaces {
			known[id] = true
		}

		for _, de := range dirEntries {
			if !de.IsDir() || known[de.Name()] {
				continue
			}
			if _, already := reg.OrphanedIndexes[de.Name()]; already {
				continue
			}
			info, statErr := de.Info()
			lastMod := nowTs
			if statErr == nil {
				lastMod = info.ModTime().Unix()
			}
			reg.OrphanedIndexes[de.Name()] = &OrphanedIndex{
				DirectoryName:        de.Name(),
				DiscoveredAt:         nowTs,
				LastModified:         lastMod,
				Reason:               OrphanNoRegistryEntry,
				ScheduledForDeletion: nowTs + orphanGracePeriodSeconds,
				SizeBytes:            dirSize(filepath.Join(m.layout.IndexesDir(), de.Name())),
			}
			found++
		}
		if found > 0 {
			recomputeStatistics(reg)
		}
		return nil
	})
	return found, err
}

// cleanupOrphans deletes orphaned index directories past their grace
// period's scheduled-for-deletion time.
func (m *Manager) cleanupOrphans() (int, error) {
	if _, err := m.DetectOrphans(); err != nil {
		return 0, err
	}

	var toDelete []string
	nowTs := now()

	err := m.service.WithRegistry(func(reg *Registry) error {
		for dir, o := range reg.OrphanedIndexes {
			if nowTs >= o.ScheduledForDeletion {
				toDelete = append(toDelete, dir)
			}
		}
		for _, dir := range toDelete {
			delete(reg.OrphanedIndexes, dir)
		}
		if len(toDelete) > 0 {
			recomputeStatistics(reg)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, dir := range toDelete {
		if rmErr := os.RemoveAll(filepath.Join(m.layout.IndexesDir(), dir)); rmErr != nil {
			m.logger.Warn("cleanup: failed to remove orphaned index dir", "dir", dir, "error", rmErr)
		}
	}
	return len(toDelete), nil
}

// ForceReindexPrimary deletes only the primary workspace's own index
// directory, leaving every reference/session index untouched — force-reindex
// must never delete the whole indexes/ tree.
func (m *Manager) ForceReindexPrimary() error {
	reg, err := m.service.Load()
	if err != nil {
		return err
	}
	if reg.PrimaryWorkspace == nil {
		return fmt.Errorf("workspace: no primary workspace registered")
	}
	return os.RemoveAll(m.layout.IndexDir(reg.PrimaryWorkspace.ID))
}

// SetTTL updates the registry's default TTL (seconds) applied to new
// Reference/Session registrations, for manage_workspace's set_ttl operation.
func (m *Manager) SetTTL(seconds int64) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		reg.Config.DefaultTTLSeconds = seconds
		return nil
	})
}

// SetMaxTotalSize updates the registry's total-size budget enforced by
// enforceSizeLimit, for manage_workspace's set_limit operation.
func (m *Manager) SetMaxTotalSize(bytes int64) error {
	return m.service.WithRegistry(func(reg *Registry) error {
		reg.Config.MaxTotalSizeBytes = bytes
		return nil
	})
}

// Statistics returns the registry's current aggregate statistics, for
// manage_workspace's stats operation.
func (m *Manager) Statistics() (Statistics, error) {
	reg, err := m.service.Load()
	if err != nil {
		return Statistics{}, err
	}
	return reg.Statistics, nil
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
