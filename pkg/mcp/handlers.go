package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/indexer"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/query"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
	"github.com/kraklabs/julie/pkg/workspace"
	"github.com/mark3labs/mcp-go/mcp"
)

// textResult marshals v as the tool's JSON response body's
// "structured text or JSON block" output contract.
func textResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errResult turns a Go error into a tool-call error result rather than a
// transport-level failure, per the "user-visible failures... return
// structured... results" policy. The message is err.Error() verbatim for
// every error.
func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// handleManageWorkspace dispatches manage_workspace's eleven operations.
func (s *Server) handleManageWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return errResult(err)
	}

	switch op {
	case "index", "add":
		path := req.GetString("path", "")
		if path == "" {
			return errResult(fmt.Errorf("manage_workspace %s requires path", op))
		}
		var entry *workspace.Entry
		if op == "index" {
			entry, err = s.manager.RegisterPrimary(path)
		} else {
			entry, err = s.manager.RegisterReference(path)
		}
		if err != nil {
			return errResult(err)
		}
		stats, err := s.indexWorkspace(ctx, entry, req.GetBool("force", false))
		if err != nil {
			return errResult(err)
		}
		return textResult(map[string]any{"workspace_id": entry.ID, "stats": stats})

	case "remove":
		id := req.GetString("workspace_id", "")
		if id == "" {
			return errResult(fmt.Errorf("manage_workspace remove requires workspace_id"))
		}
		if err := s.manager.Unregister(id); err != nil {
			return errResult(err)
		}
		return textResult(map[string]any{"removed": id})

	case "list":
		entries, err := s.manager.All()
		if err != nil {
			return errResult(err)
		}
		return textResult(entries)

	case "clean":
		result, err := s.manager.ComprehensiveCleanup()
		if err != nil {
			return errResult(err)
		}
		return textResult(result)

	case "refresh":
		id := req.GetString("workspace_id", "")
		entry, err := s.manager.Get(id)
		if err != nil {
			return errResult(err)
		}
		if entry == nil {
			return errResult(fmt.Errorf("workspace not found: %s", id))
		}
		force := req.GetBool("force", false)
		if force && entry.WorkspaceType == workspace.TypePrimary {
			if err := s.manager.ForceReindexPrimary(); err != nil {
				return errResult(err)
			}
		}
		stats, err := s.indexWorkspace(ctx, entry, force)
		if err != nil {
			return errResult(err)
		}
		return textResult(stats)

	case "stats":
		stats, err := s.manager.Statistics()
		if err != nil {
			return errResult(err)
		}
		return textResult(stats)

	case "set_ttl":
		seconds := int64(req.GetFloat("ttl_seconds", 0))
		if seconds <= 0 {
			return errResult(fmt.Errorf("set_ttl requires a positive ttl_seconds"))
		}
		if err := s.manager.SetTTL(seconds); err != nil {
			return errResult(err)
		}
		return textResult(map[string]any{"ttl_seconds": seconds})

	case "set_limit":
		bytes := int64(req.GetFloat("max_total_size_bytes", 0))
		if bytes <= 0 {
			return errResult(fmt.Errorf("set_limit requires a positive max_total_size_bytes"))
		}
		if err := s.manager.SetMaxTotalSize(bytes); err != nil {
			return errResult(err)
		}
		return textResult(map[string]any{"max_total_size_bytes": bytes})

	case "health":
		entries, err := s.manager.All()
		if err != nil {
			return errResult(err)
		}
		orphans, err := s.manager.DetectOrphans()
		if err != nil {
			return errResult(err)
		}
		return textResult(map[string]any{"workspaces": len(entries), "orphaned_indexes": orphans})

	case "recent":
		regPath, err := workspace.UserRegistryPath()
		if err != nil {
			return errResult(err)
		}
		projects, err := workspace.ListProjects(regPath)
		if err != nil {
			return errResult(err)
		}
		return textResult(projects)

	default:
		return errResult(fmt.Errorf("unknown manage_workspace operation %q", op))
	}
}

// indexWorkspace runs a full or incremental index pass over entry and
// records the resulting symbol/file counts and on-disk size back into the
// registry. Embeddings are intentionally left to a dedicated backend, out
// of scope here; a nil embedder means fast_search's semantic method
// degrades to exact/text search.
func (s *Server) indexWorkspace(ctx context.Context, entry *workspace.Entry, force bool) (*indexer.ScanStats, error) {
	layout := s.manager.Layout()
	db, err := store.Open(ctx, entry.ID, layout.DBPath(entry.ID), s.slog)
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	defer db.Close()

	pm := parser.NewParserManager(s.slog)
	qm := queries.NewQueryManager(pm, s.slog)
	ext := extractor.NewExtractor(pm, qm, s.slog)
	scanner := indexer.NewWorkspaceScanner(entry.ID, entry.OriginalPath, db, nil, nil, ext, s.slog)

	opts := indexer.DefaultScanOptions()
	var stats *indexer.ScanStats
	if force {
		stats, err = scanner.FullIndex(ctx, opts, nil)
	} else {
		needs, nerr := scanner.NeedsReindex(ctx, opts)
		if nerr != nil {
			return nil, nerr
		}
		if needs {
			stats, err = scanner.IncrementalIndex(ctx, opts, nil)
		} else {
			stats = &indexer.ScanStats{}
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.manager.UpdateStatistics(entry.ID, stats.SymbolsExtracted, stats.FilesIndexed); err != nil {
		return nil, err
	}
	_ = s.manager.UpdateIndexSize(entry.ID, dirSize(layout.IndexDir(entry.ID)))
	return stats, nil
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

// handleFastSearch implements fast_search.
func (s *Server) handleFastSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return errResult(err)
	}
	h, err := s.resolver.Resolve(ctx, req.GetString("workspace", "primary"))
	if err != nil {
		return errResult(err)
	}

	opts := query.SearchOptions{
		Query:       q,
		Method:      query.Method(req.GetString("search_method", string(query.MethodExact))),
		Target:      query.Target(req.GetString("search_target", string(query.TargetDefinitions))),
		Limit:       req.GetInt("limit", 50),
		Language:    req.GetString("language", ""),
		FilePattern: req.GetString("file_pattern", ""),
	}
	scored, lines, err := s.engine.Search(ctx, h.DB, h.Vectors, opts)
	if err != nil {
		return errResult(err)
	}
	if req.GetString("output", "symbols") == "lines" || opts.Target == query.TargetContent {
		return textResult(lines)
	}
	return textResult(scored)
}

// handleFastGoto implements fast_goto.
func (s *Server) handleFastGoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolName, err := req.RequireString("symbol")
	if err != nil {
		return errResult(err)
	}
	h, err := s.resolver.Resolve(ctx, req.GetString("workspace", "primary"))
	if err != nil {
		return errResult(err)
	}

	defs, err := query.GotoDefinition(ctx, h.DB, query.GotoOptions{
		Symbol:      symbolName,
		Kind:        symbols.Kind(req.GetString("kind", "")),
		FilePattern: req.GetString("file_pattern", ""),
		ContextFile: req.GetString("context_file", ""),
		Limit:       req.GetInt("limit", 10),
	})
	if err != nil {
		return errResult(err)
	}
	return textResult(defs)
}

// handleFastRefs implements fast_refs.
func (s *Server) handleFastRefs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolName, err := req.RequireString("symbol")
	if err != nil {
		return errResult(err)
	}
	h, err := s.resolver.Resolve(ctx, req.GetString("workspace", "primary"))
	if err != nil {
		return errResult(err)
	}

	result, err := query.FindReferences(ctx, h.DB, query.RefsOptions{
		Symbol:             symbolName,
		IncludeDefinitions: req.GetBool("include_definitions", false),
	})
	if err != nil {
		return errResult(err)
	}
	return textResult(result)
}

// handleGetSymbols implements get_symbols.
func (s *Server) handleGetSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return errResult(err)
	}
	h, err := s.resolver.Resolve(ctx, req.GetString("workspace", "primary"))
	if err != nil {
		return errResult(err)
	}

	syms, err := query.FileSymbols(ctx, h.DB, h.Root, s.fileCache, query.FileSymbolsOptions{
		FilePath: filePath,
		Target:   req.GetString("target", ""),
		Kind:     symbols.Kind(req.GetString("kind", "")),
		MaxDepth: req.GetInt("max_depth", 0),
		Mode:     query.OutlineMode(req.GetString("mode", string(query.ModeStructure))),
		Limit:    req.GetInt("limit", 0),
	})
	if err != nil {
		return errResult(err)
	}
	return textResult(syms)
}

// handleFastExplore implements fast_explore's five modes.
func (s *Server) handleFastExplore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := req.RequireString("mode")
	if err != nil {
		return errResult(err)
	}
	h, err := s.resolver.Resolve(ctx, req.GetString("workspace", "primary"))
	if err != nil {
		return errResult(err)
	}
	maxDepth := req.GetInt("max_depth", 5)
	limit := req.GetInt("limit", 20)

	switch mode {
	case "dependencies":
		symbolName := req.GetString("symbol", "")
		if symbolName == "" {
			return errResult(fmt.Errorf("fast_explore mode=dependencies requires symbol"))
		}
		tree, err := query.DependencyTree(ctx, h.DB, symbolName, maxDepth)
		if err != nil {
			return errResult(err)
		}
		return textResult(tree)

	case "types":
		typeName := req.GetString("type_name", "")
		if typeName == "" {
			return errResult(fmt.Errorf("fast_explore mode=types requires type_name"))
		}
		result, err := query.TypeIntelligence(ctx, h.DB, typeName,
			query.ExplorationType(req.GetString("exploration_type", string(query.ExploreAll))))
		if err != nil {
			return errResult(err)
		}
		return textResult(result)

	case "logic":
		symbolName := req.GetString("symbol", "")
		if symbolName == "" {
			return errResult(fmt.Errorf("fast_explore mode=logic requires symbol"))
		}
		trace, err := query.TraceDataFlow(ctx, h.DB, h.Vectors, s.engine.EmbedderOrNil(), symbolName, maxDepth)
		if err != nil {
			return errResult(err)
		}
		return textResult(trace)

	case "similar":
		symbolName := req.GetString("symbol", "")
		if symbolName == "" {
			return errResult(fmt.Errorf("fast_explore mode=similar requires symbol"))
		}
		scored, _, err := s.engine.Search(ctx, h.DB, h.Vectors, query.SearchOptions{
			Query: symbolName, Method: query.MethodSemantic, Limit: limit,
		})
		if err != nil {
			return errResult(err)
		}
		return textResult(scored)

	case "tests":
		symbolName := req.GetString("symbol", "")
		if symbolName == "" {
			return errResult(fmt.Errorf("fast_explore mode=tests requires symbol"))
		}
		seen := make(map[string]bool)
		var hits []query.Scored
		for _, pattern := range []string{"**/*test*", "**/*spec*"} {
			scored, _, err := s.engine.Search(ctx, h.DB, h.Vectors, query.SearchOptions{
				Query: symbolName, Method: query.MethodExact, FilePattern: pattern, Limit: limit,
			})
			if err != nil {
				return errResult(err)
			}
			for _, sc := range scored {
				if seen[sc.Symbol.ID] {
					continue
				}
				seen[sc.Symbol.ID] = true
				hits = append(hits, sc)
			}
		}
		return textResult(hits)

	default:
		return errResult(fmt.Errorf("unknown fast_explore mode %q", mode))
	}
}
