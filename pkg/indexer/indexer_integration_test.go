package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/store"
)

const testWorkspaceID = "ws_indexer_test"

func setupScanner(t *testing.T, root string) (*WorkspaceScanner, *store.DB) {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	ext := extractor.NewExtractor(pm, qm, nil)

	dbPath := filepath.Join(t.TempDir(), "symbols.db")
	db, err := store.Open(context.Background(), testWorkspaceID, dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	scanner := NewWorkspaceScanner(testWorkspaceID, root, db, nil, nil, ext, nil)
	return scanner, db
}

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestFullIndex_IndexesWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add(a: number, b: number): number { return a + b; }")
	writeFile(t, root, "node_modules/dep/index.ts", "export function ignored() {}")

	scanner, db := setupScanner(t, root)

	stats, err := scanner.FullIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDiscovered, "node_modules must be excluded")
	assert.Equal(t, 1, stats.FilesIndexed)

	syms, err := db.GetSymbolsByName(context.Background(), "add")
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}

func TestIncrementalIndex_SkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add(a: number, b: number): number { return a + b; }")

	scanner, _ := setupScanner(t, root)
	_, err := scanner.FullIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)

	stats, err := scanner.IncrementalIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesUnchanged)
	assert.Equal(t, 0, stats.FilesIndexed)
}

func TestIncrementalIndex_ReindexesChangedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add(a: number, b: number): number { return a + b; }")

	scanner, db := setupScanner(t, root)
	_, err := scanner.FullIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)

	writeFile(t, root, "a.ts", "export function subtract(a: number, b: number): number { return a - b; }")

	stats, err := scanner.IncrementalIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	syms, err := db.GetSymbolsByName(context.Background(), "subtract")
	require.NoError(t, err)
	assert.Len(t, syms, 1)

	old, err := db.GetSymbolsByName(context.Background(), "add")
	require.NoError(t, err)
	assert.Empty(t, old, "replace-by-file must remove the old file's symbols")
}

func TestIncrementalIndex_DeletesRemovedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add(a: number, b: number): number { return a + b; }")

	scanner, db := setupScanner(t, root)
	_, err := scanner.FullIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.ts")))

	stats, err := scanner.IncrementalIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)

	syms, err := db.GetSymbolsByName(context.Background(), "add")
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestNeedsReindex_EmptyDBTrue(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add() {}")
	scanner, _ := setupScanner(t, root)

	needs, err := scanner.NeedsReindex(context.Background(), DefaultScanOptions())
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsReindex_UpToDateFalse(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function add() {}")
	scanner, _ := setupScanner(t, root)

	_, err := scanner.FullIndex(context.Background(), DefaultScanOptions(), nil)
	require.NoError(t, err)

	needs, err := scanner.NeedsReindex(context.Background(), DefaultScanOptions())
	require.NoError(t, err)
	assert.False(t, needs)
}
