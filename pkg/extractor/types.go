// Package extractor implements unified per-file extraction of symbols,
// relationships, and identifiers for every wired language.
//
// Critical optimization: parse each file ONCE and run every query
// (symbols, calls) against the same AST tree.
package extractor

import "github.com/kraklabs/julie/pkg/symbols"

// PerFileResult is the complete extraction result for a single file: the
// symbols it defines, the relationships its call sites imply, and the
// non-definition identifier occurrences found along the way.
type PerFileResult struct {
	FilePath      string
	Language      string
	Symbols       []symbols.Symbol
	Relationships []symbols.Relationship
	Identifiers   []symbols.Identifier
}
