package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/julie/pkg/config"
	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/indexer"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/workspace"
)

// runIndex implements "julie index [path] [--force] [--json]": register
// path (default ".") as the primary workspace and run a full or
// incremental scan.
func runIndex(args []string) {
	path := "."
	force := false
	asJSON := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--force":
			force = true
		case "--json":
			asJSON = true
		default:
			path = args[i]
		}
	}

	root, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve path: %v\n", err)
		os.Exit(1)
	}

	manager := workspace.NewManager(root, slog.Default())
	entry, err := manager.RegisterPrimary(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register workspace: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(manager.Layout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	stats, err := indexWorkspace(context.Background(), manager, entry, cfg, force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "index: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(stats)
		return
	}

	fmt.Printf("indexed %s (%s)\n", root, entry.ID)
	fmt.Printf("  files discovered: %d, indexed: %d, unchanged: %d, failed: %d, deleted: %d\n",
		stats.FilesDiscovered, stats.FilesIndexed, stats.FilesUnchanged, stats.FilesFailed, stats.FilesDeleted)
	fmt.Printf("  symbols extracted: %d\n", stats.SymbolsExtracted)
	fmt.Printf("  total: %dms (discovery %dms, indexing %dms, %d workers)\n",
		stats.TotalTimeMs, stats.DiscoveryTimeMs, stats.IndexingTimeMs, stats.WorkerCount)
	for _, e := range stats.Errors {
		fmt.Printf("  error: %s: %v\n", e.FilePath, e.Error)
	}
}

// indexWorkspace opens entry's database and runs a full or incremental
// scan against it, in the same shape as pkg/mcp's manage_workspace
// index/refresh dispatch — duplicated here rather than shared, since the
// CLI and the MCP server are independent entry points into the same
// indexing pipeline.
func indexWorkspace(ctx context.Context, manager *workspace.Manager, entry *workspace.Entry, cfg config.Config, force bool) (*indexer.ScanStats, error) {
	layout := manager.Layout()
	db, err := store.Open(ctx, entry.ID, layout.DBPath(entry.ID), slog.Default())
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	defer db.Close()

	pm := parser.NewParserManager(slog.Default())
	qm := queries.NewQueryManager(pm, slog.Default())
	ext := extractor.NewExtractor(pm, qm, slog.Default())
	scanner := indexer.NewWorkspaceScanner(entry.ID, entry.OriginalPath, db, nil, nil, ext, slog.Default())

	opts := indexer.DefaultScanOptions()
	opts.IgnorePatterns = cfg.IgnorePatterns
	if cfg.MaxFileSize > 0 {
		opts.MaxFileSizeBytes = cfg.MaxFileSize
	}

	var stats *indexer.ScanStats
	if force {
		stats, err = scanner.FullIndex(ctx, opts, progressPrinter())
	} else {
		needs, nerr := scanner.NeedsReindex(ctx, opts)
		if nerr != nil {
			return nil, nerr
		}
		if needs {
			stats, err = scanner.IncrementalIndex(ctx, opts, progressPrinter())
		} else {
			stats = &indexer.ScanStats{}
		}
	}
	if err != nil {
		return nil, err
	}

	if uerr := manager.UpdateStatistics(entry.ID, stats.SymbolsExtracted, stats.FilesIndexed+stats.FilesUnchanged); uerr != nil {
		return nil, uerr
	}
	if uerr := manager.UpdateIndexSize(entry.ID, dirSize(layout.IndexDir(entry.ID))); uerr != nil {
		return nil, uerr
	}
	return stats, nil
}

func progressPrinter() indexer.ProgressCallback {
	return func(indexed, total int, currentFile string) {
		if currentFile == "" {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  [%d/%d] %s", indexed, total, currentFile)
	}
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
