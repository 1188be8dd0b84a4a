package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterPrimary(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)

	entry, err := m.RegisterPrimary("/some/project/path")
	require.NoError(t, err)
	assert.Equal(t, TypePrimary, entry.WorkspaceType)
	assert.Nil(t, entry.ExpiresAt)

	_, statErr := os.Stat(filepath.Join(m.Layout().IndexDir(entry.ID), "vectors"))
	assert.NoError(t, statErr)
}

func TestManager_RegisterReferenceSetsExpiry(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)
	assert.Equal(t, entry.CreatedAt+DefaultConfig().DefaultTTLSeconds, *entry.ExpiresAt)
}

func TestManager_RegisterSessionSetsExpiry(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterSession("/sess/path")
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)
	assert.Equal(t, entry.CreatedAt+SessionTTLSeconds, *entry.ExpiresAt)
}

func TestManager_RegisterIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	a, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)
	b, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	all, err := m.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestManager_UnregisterCannotRemovePrimary(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterPrimary("/primary/path")
	require.NoError(t, err)

	err = m.Unregister(entry.ID)
	assert.Error(t, err)
}

func TestManager_UnregisterRemovesReferenceAndIndexDir(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)

	require.NoError(t, m.Unregister(entry.ID))

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, statErr := os.Stat(m.Layout().IndexDir(entry.ID))
	assert.True(t, os.IsNotExist(statErr))
}

func TestManager_UpdateStatisticsAndIndexSize(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterPrimary("/primary/path")
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatistics(entry.ID, 42, 7))
	require.NoError(t, m.UpdateIndexSize(entry.ID, 1024))

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.SymbolCount)
	assert.Equal(t, 7, got.FileCount)
	assert.Equal(t, int64(1024), got.IndexSizeBytes)
}

func TestManager_CleanupExpiredRemovesReference(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	entry, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)

	// Force immediate expiry.
	require.NoError(t, m.service.WithRegistry(func(reg *Registry) error {
		past := now() - 1
		reg.ReferenceWorkspaces[entry.ID].ExpiresAt = &past
		return nil
	}))

	removed, err := m.cleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestManager_EnforceSizeLimitEvictsLRU(t *testing.T) {
	m := NewManager(t.TempDir(), nil)

	older, err := m.RegisterReference("/ref/older")
	require.NoError(t, err)
	newer, err := m.RegisterReference("/ref/newer")
	require.NoError(t, err)

	require.NoError(t, m.service.WithRegistry(func(reg *Registry) error {
		reg.Config.MaxTotalSizeBytes = 100
		reg.ReferenceWorkspaces[older.ID].LastAccessed = 1
		reg.ReferenceWorkspaces[older.ID].IndexSizeBytes = 200
		reg.ReferenceWorkspaces[newer.ID].LastAccessed = 2
		reg.ReferenceWorkspaces[newer.ID].IndexSizeBytes = 50
		reg.Statistics.TotalIndexSizeBytes = 250
		return nil
	}))

	evicted, err := m.enforceSizeLimit()
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	got, err := m.Get(older.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "the least-recently-accessed entry should be evicted first")

	stillThere, err := m.Get(newer.ID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)
}

func TestManager_DetectOrphans(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)

	orphanDir := filepath.Join(m.Layout().IndexesDir(), "stray_12345678")
	require.NoError(t, os.MkdirAll(orphanDir, 0755))

	found, err := m.DetectOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	reg, err := m.service.Load()
	require.NoError(t, err)
	assert.Contains(t, reg.OrphanedIndexes, "stray_12345678")
}

func TestManager_ForceReindexPrimaryOnlyTouchesPrimary(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	primary, err := m.RegisterPrimary("/primary/path")
	require.NoError(t, err)
	ref, err := m.RegisterReference("/ref/path")
	require.NoError(t, err)

	require.NoError(t, m.ForceReindexPrimary())

	_, err = os.Stat(m.Layout().IndexDir(primary.ID))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(m.Layout().IndexDir(ref.ID))
	assert.NoError(t, err, "reference workspace index must survive a primary force-reindex")
}
