package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/julie/pkg/config"
	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/indexer"
	mcpserver "github.com/kraklabs/julie/pkg/mcp"
	"github.com/kraklabs/julie/pkg/mcplog"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/query"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/workspace"
)

// runServe implements "julie serve [path] [--no-watch] [--no-log]": open
// (indexing first, if needed) path as the primary workspace and expose
// the six MCP tools over stdio. Registers the workspace in the
// global user registry too, so "julie workspace recent" can list it.
func runServe(args []string) {
	path := "."
	watch := true
	logTools := true

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--no-watch":
			watch = false
		case "--no-log":
			logTools = false
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
	entry, err := manager.GetByPath(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup workspace: %v\n", err)
		os.Exit(1)
	}
	if entry == nil {
		entry, err = manager.RegisterPrimary(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register workspace: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(manager.Layout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if _, err := indexWorkspace(ctx, manager, entry, cfg, false); err != nil {
		fmt.Fprintf(os.Stderr, "initial index: %v\n", err)
		os.Exit(1)
	}

	if upath, uerr := workspace.UserRegistryPath(); uerr == nil {
		_ = workspace.RegisterProject(upath, root)
	}

	layout := manager.Layout()
	db, err := store.Open(ctx, entry.ID, layout.DBPath(entry.ID), slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open workspace db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	resolver := query.NewResolver(manager, query.Handle{WorkspaceID: entry.ID, DB: db, Root: root})
	defer resolver.Close()
	engine := query.NewEngine(nil) // no embedder wired yet: semantic search falls back to exact/text

	var logger *mcplog.Logger
	if logTools {
		logger, err = mcplog.NewLogger(filepath.Join(layout.LogsDir(), "mcp.jsonl"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "open tool log: %v\n", err)
			os.Exit(1)
		}
	}

	srv := mcpserver.NewServer(manager, resolver, engine, logger, slog.Default())
	defer srv.Close()

	if watch && cfg.IncrementalUpdates {
		fw, stopErr := startWatcher(entry, db)
		if stopErr != nil {
			fmt.Fprintf(os.Stderr, "start watcher: %v\n", stopErr)
			os.Exit(1)
		}
		if fw != nil {
			defer fw.Stop()
		}
	}

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// startWatcher wires pkg/indexer's fsnotify-based watcher to entry's
// database, so edits made while the MCP server is attached are reflected
// without a manual "julie index --force".
func startWatcher(entry *workspace.Entry, db *store.DB) (*indexer.FileWatcher, error) {
	pm := parser.NewParserManager(slog.Default())
	qm := queries.NewQueryManager(pm, slog.Default())
	ext := extractor.NewExtractor(pm, qm, slog.Default())
	scanner := indexer.NewWorkspaceScanner(entry.ID, entry.OriginalPath, db, nil, nil, ext, slog.Default())

	fw, err := indexer.NewFileWatcher(scanner, indexer.DefaultWatchOptions(), slog.Default())
	if err != nil {
		return nil, err
	}
	if err := fw.Start(entry.OriginalPath); err != nil {
		return nil, err
	}
	return fw, nil
}
