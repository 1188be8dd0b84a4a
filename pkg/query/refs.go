package query

import (
	"context"
	"fmt"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

// RefHit is one deduplicated reference occurrence returned by
// FindReferences.
type RefHit struct {
	FilePath string `json:"file_path"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
	Kind     string `json:"kind"` // "relationship", "identifier", or "text"
}

// RefsOptions carries fast_refs's parameters .
type RefsOptions struct {
	Symbol             string
	IncludeDefinitions bool
}

// RefsResult bundles references with the optional definition set.
type RefsResult struct {
	References  []RefHit         `json:"references"`
	Definitions []symbols.Symbol `json:"definitions,omitempty"`
}

// FindReferences computes the union of
// relationship edges landing on a definition, name+kind-filtered
// identifier occurrences, and (only when no structural hit exists, since
// disambiguation would otherwise be needed) a text-search fallback —
// deduplicated by (file, line, column).
func FindReferences(ctx context.Context, db *store.DB, opts RefsOptions) (RefsResult, error) {
	defs, err := db.GetSymbolsByName(ctx, opts.Symbol)
	if err != nil {
		return RefsResult{}, fmt.Errorf("resolve definitions: %w", err)
	}

	seen := make(map[string]bool)
	var out []RefHit
	add := func(h RefHit) {
		key := fmt.Sprintf("%s:%d:%d", h.FilePath, h.Line, h.Column)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, h)
	}

	for _, def := range defs {
		rels, err := db.GetRelationshipsForSymbol(ctx, def.ID)
		if err != nil {
			return RefsResult{}, err
		}
		for _, r := range rels {
			if r.ToSymbolID != def.ID {
				continue
			}
			add(RefHit{FilePath: r.FilePath, Line: r.LineNumber, Kind: "relationship"})
		}
	}

	symbolicRels, err := db.GetRelationshipsByToName(ctx, opts.Symbol)
	if err != nil {
		return RefsResult{}, err
	}
	for _, r := range symbolicRels {
		add(RefHit{FilePath: r.FilePath, Line: r.LineNumber, Kind: "relationship"})
	}

	idents, err := db.GetIdentifiersByName(ctx, opts.Symbol, []symbols.IdentifierKind{
		symbols.IdentifierCall, symbols.IdentifierMemberAccess,
	})
	if err != nil {
		return RefsResult{}, err
	}
	for _, id := range idents {
		add(RefHit{FilePath: id.FilePath, Line: id.Line, Column: id.Column, Kind: "identifier"})
	}

	if len(out) == 0 {
		textHits, err := db.SearchFilesContent(ctx, opts.Symbol, 20)
		if err != nil {
			return RefsResult{}, err
		}
		for _, h := range textHits {
			add(RefHit{FilePath: h.Path, Kind: "text"})
		}
	}

	result := RefsResult{References: out}
	if opts.IncludeDefinitions {
		result.Definitions = defs
	}
	return result, nil
}
