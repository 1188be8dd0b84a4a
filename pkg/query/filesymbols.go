package query

import (
	"context"
	"path/filepath"

	"github.com/kraklabs/julie/pkg/filecache"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

// OutlineMode controls whether get_symbols extracts code bodies from disk.
type OutlineMode string

const (
	ModeStructure OutlineMode = "structure"
	ModeFull      OutlineMode = "full"
)

// FileSymbolsOptions carries get_symbols's parameters .
type FileSymbolsOptions struct {
	FilePath string
	Target   string // restrict to this symbol (and, implicitly, its descendants)
	Kind     symbols.Kind
	MaxDepth int // 0 = no limit
	Mode     OutlineMode
	Limit    int
}

// FileSymbols implements the file-symbols outline: symbols for
// a file, optionally filtered by kind/target-name/max-depth (depth within
// the parent chain), with code bodies populated from root+FilePath on
// Mode=full. root is the *owning* workspace's root (primary root, or a
// reference workspace's own root per the "reference-workspace files
// are read from the reference workspace's own root" rule) — the caller is
// responsible for resolving which root that is.
// cache may be nil, in which case code extraction falls back to a plain
// os.ReadFile per file (pkg/filecache.Cache's FetchCode handles this on a
// nil receiver).
func FileSymbols(ctx context.Context, db *store.DB, root string, cache *filecache.Cache, opts FileSymbolsOptions) ([]symbols.Symbol, error) {
	all, err := db.GetSymbolsForFile(ctx, opts.FilePath)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]symbols.Symbol, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}

	var targetID string
	if opts.Target != "" {
		for _, s := range all {
			if s.Name == opts.Target {
				targetID = s.ID
				break
			}
		}
	}

	var out []symbols.Symbol
	for _, s := range all {
		if opts.Kind != "" && s.Kind != opts.Kind {
			continue
		}
		if targetID != "" && s.ID != targetID && !descendsFrom(byID, s, targetID) {
			continue
		}
		if opts.MaxDepth > 0 && depthOf(byID, s) > opts.MaxDepth {
			continue
		}
		out = append(out, s)
	}

	if opts.Mode == ModeFull && root != "" {
		if err := populateCode(root, cache, out); err != nil {
			return out, err
		}
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// depthOf walks a symbol's ParentID chain within the same file, returning
// how many ancestors it has.
func depthOf(byID map[string]symbols.Symbol, s symbols.Symbol) int {
	depth := 0
	cur := s
	for cur.ParentID != "" {
		parent, ok := byID[cur.ParentID]
		if !ok {
			break
		}
		depth++
		cur = parent
	}
	return depth
}

func descendsFrom(byID map[string]symbols.Symbol, s symbols.Symbol, ancestorID string) bool {
	cur := s
	for cur.ParentID != "" {
		if cur.ParentID == ancestorID {
			return true
		}
		parent, ok := byID[cur.ParentID]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

// populateCode fills each symbol's Code from root+FilePath's byte span,
// per the mode=full contract. Uses cache's mmap-backed
// FetchCode so that a file touched by several symbols in the same
// FileSymbols call is mapped once, not read once per symbol.
func populateCode(root string, cache *filecache.Cache, syms []symbols.Symbol) error {
	for i, s := range syms {
		loc := s.Location
		if loc.StartByte >= loc.EndByte {
			continue
		}
		path := filepath.Join(filepath.FromSlash(root), filepath.FromSlash(s.FilePath))
		code, err := cache.FetchCode(path, loc.StartByte, loc.EndByte)
		if err != nil {
			continue // best-effort: a missing/unreadable file or stale range just keeps Code empty
		}
		syms[i].Code = code
	}
	return nil
}
