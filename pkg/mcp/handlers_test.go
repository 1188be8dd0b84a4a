package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/indexer"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/query"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

// testServer indexes a small fixture workspace and wires a Server over it,
// mirroring the real cmd/julie startup path: register primary, index it,
// open a resolver holding the primary handle.
func testServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ts"), []byte(`
export function helper() { return 1; }
export function caller() { return helper(); }
`), 0644))

	manager := workspace.NewManager(root, nil)
	entry, err := manager.RegisterPrimary(root)
	require.NoError(t, err)

	db, err := store.Open(context.Background(), entry.ID, manager.Layout().DBPath(entry.ID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	ext := extractor.NewExtractor(pm, qm, nil)
	scanner := indexer.NewWorkspaceScanner(entry.ID, root, db, nil, nil, ext, nil)
	_, err = scanner.FullIndex(context.Background(), indexer.DefaultScanOptions(), nil)
	require.NoError(t, err)

	resolver := query.NewResolver(manager, query.Handle{WorkspaceID: entry.ID, DB: db, Root: root})
	engine := query.NewEngine(nil)
	return NewServer(manager, resolver, engine, nil, nil)
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "manage_workspace":
		handler = s.handleManageWorkspace
	case "fast_search":
		handler = s.handleFastSearch
	case "fast_goto":
		handler = s.handleFastGoto
	case "fast_refs":
		handler = s.handleFastRefs
	case "fast_explore":
		handler = s.handleFastExplore
	case "get_symbols":
		handler = s.handleGetSymbols
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- fast_search ---

func TestHandleFastSearch_ExactMatch(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_search", map[string]any{"query": "helper"}))
	assert.False(t, result.IsError)

	var hits []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &hits))
	require.NotEmpty(t, hits)
}

// --- fast_goto ---

func TestHandleFastGoto_ResolvesDefinition(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_goto", map[string]any{"symbol": "helper"}))
	assert.False(t, result.IsError)

	var defs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &defs))
	require.NotEmpty(t, defs)
}

func TestHandleFastGoto_MissingSymbolIsError(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_goto", map[string]any{}))
	assert.True(t, result.IsError)
}

// --- fast_refs ---

func TestHandleFastRefs_FindsCall(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_refs", map[string]any{"symbol": "helper"}))
	assert.False(t, result.IsError)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &body))
	refs, _ := body["references"].([]any)
	assert.NotEmpty(t, refs)
}

// --- get_symbols ---

func TestHandleGetSymbols_StructureMode(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("get_symbols", map[string]any{"file_path": "a.ts"}))
	assert.False(t, result.IsError)

	var syms []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &syms))
	assert.Len(t, syms, 2)
}

// --- fast_explore ---

func TestHandleFastExplore_Dependencies(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_explore", map[string]any{"mode": "dependencies", "symbol": "caller"}))
	assert.False(t, result.IsError)
}

func TestHandleFastExplore_UnknownMode(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("fast_explore", map[string]any{"mode": "bogus"}))
	assert.True(t, result.IsError)
}

// --- manage_workspace ---

func TestHandleManageWorkspace_List(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("manage_workspace", map[string]any{"operation": "list"}))
	assert.False(t, result.IsError)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &entries))
	assert.Len(t, entries, 1)
}

func TestHandleManageWorkspace_Stats(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("manage_workspace", map[string]any{"operation": "stats"}))
	assert.False(t, result.IsError)
}

func TestHandleManageWorkspace_UnknownOperation(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("manage_workspace", map[string]any{"operation": "bogus"}))
	assert.True(t, result.IsError)
}
