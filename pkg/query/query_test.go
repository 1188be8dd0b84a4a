package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/indexer"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

const testWorkspaceID = "ws_query_test"

// setupIndexedDB indexes a small fixture workspace into a fresh DB, reusing
// pkg/indexer the same way a real caller would, rather than hand-inserting
// rows — so these tests exercise the real symbol/relationship shapes the
// extractor produces.
func setupIndexedDB(t *testing.T, root string) *store.DB {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	ext := extractor.NewExtractor(pm, qm, nil)

	dbPath := filepath.Join(t.TempDir(), "symbols.db")
	db, err := store.Open(context.Background(), testWorkspaceID, dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	scanner := indexer.NewWorkspaceScanner(testWorkspaceID, root, db, nil, nil, ext, nil)
	_, err = scanner.FullIndex(context.Background(), indexer.DefaultScanOptions(), nil)
	require.NoError(t, err)
	return db
}

func writeFixture(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestSearchExact_FindsSymbolByName(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function computeTotal(items: number[]): number { return items.length; }")
	db := setupIndexedDB(t, root)

	e := NewEngine(nil)
	scored, _, err := e.Search(context.Background(), db, nil, SearchOptions{Query: "computeTotal", Method: MethodExact})
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, "computeTotal", scored[0].Symbol.Name)
}

func TestSearchFuzzy_ToleratesTypo(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function computeTotal(items: number[]): number { return items.length; }")
	db := setupIndexedDB(t, root)

	e := NewEngine(nil)
	scored, _, err := e.Search(context.Background(), db, nil, SearchOptions{Query: "computTotal", Method: MethodFuzzy})
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, "computeTotal", scored[0].Symbol.Name)
}

func TestSearchRegex_MatchesPattern(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function getUser() {} export function getAccount() {}")
	db := setupIndexedDB(t, root)

	e := NewEngine(nil)
	scored, _, err := e.Search(context.Background(), db, nil, SearchOptions{Query: "^get", Method: MethodRegex})
	require.NoError(t, err)
	assert.Len(t, scored, 2)
}

func TestSearchText_FindsFileByContent(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export const MAGIC_TOKEN = 'xyzzy-marker';")
	db := setupIndexedDB(t, root)

	e := NewEngine(nil)
	_, lines, err := e.Search(context.Background(), db, nil, SearchOptions{Query: "xyzzy", Target: TargetContent})
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, "a.ts", lines[0].FilePath)
}

func TestGotoDefinition_FiltersByKind(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function widget() {} export const widget2 = 1;")
	db := setupIndexedDB(t, root)

	defs, err := GotoDefinition(context.Background(), db, GotoOptions{Symbol: "widget", Kind: symbols.KindFunction})
	require.NoError(t, err)
	require.NotEmpty(t, defs)
	assert.Equal(t, symbols.KindFunction, defs[0].Symbol.Kind)
}

func TestFindReferences_FindsIdentifierCall(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", `
export function helper() { return 1; }
export function caller() { return helper(); }
`)
	db := setupIndexedDB(t, root)

	result, err := FindReferences(context.Background(), db, RefsOptions{Symbol: "helper"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.References)
}

func TestFileSymbols_StructureMode(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function one() {} export function two() {}")
	db := setupIndexedDB(t, root)

	syms, err := FileSymbols(context.Background(), db, root, nil, FileSymbolsOptions{FilePath: "a.ts", Mode: ModeStructure})
	require.NoError(t, err)
	assert.Len(t, syms, 2)
	assert.Empty(t, syms[0].Code, "structure mode must not populate code bodies")
}

func TestFileSymbols_FullModePopulatesCode(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", "export function one() { return 1; }")
	db := setupIndexedDB(t, root)

	syms, err := FileSymbols(context.Background(), db, root, nil, FileSymbolsOptions{FilePath: "a.ts", Mode: ModeFull})
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.NotEmpty(t, syms[0].Code)
}

func TestDependencyTree_FollowsCalls(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.ts", `
export function inner() { return 1; }
export function outer() { return inner(); }
`)
	db := setupIndexedDB(t, root)

	tree, err := DependencyTree(context.Background(), db, "outer", 5)
	require.NoError(t, err)
	require.NotEmpty(t, tree)
}

func TestLevenshtein_EarlyTermination(t *testing.T) {
	assert.Equal(t, 0, levenshtein("same", "same", 2))
	assert.True(t, levenshtein("abc", "xyz123456", 2) > 2)
}
