package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kraklabs/julie/pkg/workspace"
)

// runWorkspace implements "julie workspace <subcommand> [args] [--json]",
// the CLI surface over manage_workspace's registry operations, for use
// outside an MCP client.
func runWorkspace(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: julie workspace <list|stats|clean|recent|health|set-ttl|set-limit> [args] [--json]")
		os.Exit(1)
	}

	sub := args[0]
	rest := args[1:]
	root, rest := takeRoot(rest)
	asJSON := takeJSON(rest)
	rest = dropJSON(rest)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve root: %v\n", err)
		os.Exit(1)
	}
	manager := workspace.NewManager(absRoot, slog.Default())

	switch sub {
	case "list":
		entries, err := manager.All()
		exitOnErr(err)
		printJSONOrElse(asJSON, entries, func() {
			for _, e := range entries {
				fmt.Printf("%s  %-10s %-30s %d symbols, %d files\n", e.ID, e.WorkspaceType, e.OriginalPath, e.SymbolCount, e.FileCount)
			}
		})
	case "stats":
		stats, err := manager.Statistics()
		exitOnErr(err)
		printJSONOrElse(asJSON, stats, func() {
			fmt.Printf("workspaces: %d, orphans: %d, symbols: %d, index size: %d bytes\n",
				stats.TotalWorkspaces, stats.TotalOrphans, stats.TotalSymbols, stats.TotalIndexSizeBytes)
		})
	case "clean":
		result, err := manager.ComprehensiveCleanup()
		exitOnErr(err)
		printJSONOrElse(asJSON, result, func() {
			fmt.Printf("expired removed: %d, evicted for size: %d, orphans removed: %d\n",
				result.ExpiredRemoved, result.EvictedForSize, result.OrphansRemoved)
		})
	case "recent":
		upath, err := workspace.UserRegistryPath()
		exitOnErr(err)
		projects, err := workspace.ListProjects(upath)
		exitOnErr(err)
		printJSONOrElse(asJSON, projects, func() {
			for _, p := range projects {
				fmt.Printf("%s  %s\n", p.Path, p.Name)
			}
		})
	case "health":
		entries, err := manager.All()
		exitOnErr(err)
		orphans, err := manager.DetectOrphans()
		exitOnErr(err)
		printJSONOrElse(asJSON, map[string]any{"workspaces": len(entries), "orphaned_indexes": orphans}, func() {
			fmt.Printf("workspaces: %d, orphaned indexes: %d\n", len(entries), orphans)
		})
	case "set-ttl":
		if len(rest) == 0 {
			fmt.Fprintln(os.Stderr, "usage: julie workspace set-ttl <seconds>")
			os.Exit(1)
		}
		seconds, err := strconv.ParseInt(rest[0], 10, 64)
		exitOnErr(err)
		exitOnErr(manager.SetTTL(seconds))
	case "set-limit":
		if len(rest) == 0 {
			fmt.Fprintln(os.Stderr, "usage: julie workspace set-limit <bytes>")
			os.Exit(1)
		}
		bytes, err := strconv.ParseInt(rest[0], 10, 64)
		exitOnErr(err)
		exitOnErr(manager.SetMaxTotalSize(bytes))
	default:
		fmt.Fprintf(os.Stderr, "unknown workspace subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// takeRoot extracts a leading --root value from args, defaulting to ".",
// and returns the remaining args.
func takeRoot(args []string) (string, []string) {
	root := "."
	out := args[:0:0]
	for i := 0; i < len(args); i++ {
		if args[i] == "--root" && i+1 < len(args) {
			root = args[i+1]
			i++
			continue
		}
		out = append(out, args[i])
	}
	return root, out
}

func takeJSON(args []string) bool {
	for _, a := range args {
		if a == "--json" {
			return true
		}
	}
	return false
}

func dropJSON(args []string) []string {
	out := args[:0:0]
	for _, a := range args {
		if a != "--json" {
			out = append(out, a)
		}
	}
	return out
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printJSONOrElse(asJSON bool, v any, human func()) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(v)
		return
	}
	human()
}
