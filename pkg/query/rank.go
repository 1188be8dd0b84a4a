// Package query implements the search and navigation layer: multi-strategy
// search, goto-definition, find-references, file outlines, type
// intelligence, dependency traversal, and the cross-language data-flow
// tracer. It sits on top of pkg/store and pkg/vectorstore as the one layer
// every MCP tool handler calls through.
package query

import (
	"path"
	"sort"

	"github.com/kraklabs/julie/pkg/symbols"
)

// kindWeight implements the definition_priority ordering as a
// numeric multiplier: Class/Interface > Function > Method/Constructor >
// Type/Enum > Variable/Constant > other.
func kindWeight(k symbols.Kind) float64 {
	switch k {
	case symbols.KindClass, symbols.KindInterface, symbols.KindStruct:
		return 1.0
	case symbols.KindFunction:
		return 0.9
	case symbols.KindMethod, symbols.KindConstructor:
		return 0.8
	case symbols.KindType, symbols.KindEnum, symbols.KindEnumMember:
		return 0.7
	case symbols.KindVariable, symbols.KindConstant, symbols.KindField, symbols.KindProperty:
		return 0.6
	default:
		return 0.4
	}
}

// visibilityWeight gives public symbols a slight edge over unexported ones,
// since a caller searching by name almost always wants the public API.
func visibilityWeight(v symbols.Visibility) float64 {
	switch v {
	case symbols.VisibilityPublic, "":
		return 1.0
	case symbols.VisibilityProtected:
		return 0.9
	default:
		return 0.8
	}
}

// contextBonus rewards a hit whose file matches contextFile (the file the
// caller is currently looking at), per the "file-in-context
// bonus".
func contextBonus(filePath, contextFile string) float64 {
	if contextFile == "" {
		return 1.0
	}
	if filePath == contextFile {
		return 1.3
	}
	if path.Dir(filePath) == path.Dir(contextFile) {
		return 1.1
	}
	return 1.0
}

// exactnessBonus distinguishes an exact name match from a prefix/contains
// match.
func exactnessBonus(name, query string) float64 {
	switch {
	case name == query:
		return 1.5
	case len(name) >= len(query) && name[:len(query)] == query:
		return 1.2
	default:
		return 1.0
	}
}

// Scored pairs a symbol with its combined rank, used to sort and to carry
// the score through to a tool response.
type Scored struct {
	Symbol symbols.Symbol
	Score  float64
}

// score combines base FTS rank with kind/visibility/context weights per
// the ranking formula: "base FTS rank × kind weight × visibility
// weight × file-in-context bonus". bm25 scores are negative (more negative
// is better), so the base is inverted into a positive magnitude first.
func score(baseRank float64, s symbols.Symbol, contextFile string) float64 {
	base := -baseRank
	if base <= 0 {
		base = 0.01
	}
	return base * kindWeight(s.Kind) * visibilityWeight(s.Visibility) * contextBonus(s.FilePath, contextFile)
}

// sortScored orders by descending score, tie-broken by (shorter file_path,
// then lower start_line).
func sortScored(hits []Scored) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if len(hits[i].Symbol.FilePath) != len(hits[j].Symbol.FilePath) {
			return len(hits[i].Symbol.FilePath) < len(hits[j].Symbol.FilePath)
		}
		return hits[i].Symbol.Location.StartLine < hits[j].Symbol.Location.StartLine
	})
}
