package extractor

import (
	"fmt"
	"log/slog"

	"github.com/kraklabs/julie/pkg/langs"
	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
)

// Extractor performs unified extraction of symbols, relationships, and
// identifiers across every wired language.
//
// Critical optimization: each file is parsed ONCE and every query (symbols,
// calls) runs on the same tree.
type Extractor struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
}

// NewExtractor creates a new unified extractor.
func NewExtractor(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Extractor{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// ExtractFile parses a file ONCE and extracts every symbol, relationship,
// and identifier from the resulting tree.
//
// ExtractFile is a pure function of its arguments: it performs no I/O and
// touches no package-level state. workspaceID scopes the stable ids it
// derives via pkg/symbols.GenerateID, so the same file indexed into two
// workspaces never collides.
//
// Returns an error for files whose language has no wired grammar; the
// indexer counts that as a per-file failure, not a fatal error.
func (e *Extractor) ExtractFile(workspaceID, filePath string, sourceCode []byte) (*PerFileResult, error) {
	lang, variant := langs.Detect(filePath)
	if lang == langs.Unknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	if !lang.Wired() {
		return nil, fmt.Errorf("no tree-sitter grammar wired for language %q", lang)
	}

	tree, err := e.parserManager.Parse(sourceCode, lang, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	defer tree.Close()

	symbolQuery, err := e.queryManager.GetQuery(lang, variant, queries.QueryTypeSymbols)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol query for %s: %w", lang, err)
	}
	symbolMatches, err := e.queryManager.ExecuteQuery(tree, symbolQuery, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to execute symbol query: %w", err)
	}

	syms := e.extractSymbols(workspaceID, symbolMatches, sourceCode, filePath, lang)

	var idents []identifierMatch
	callQuery, err := e.queryManager.GetQuery(lang, variant, queries.QueryTypeCalls)
	if err != nil {
		// Not every language has a calls query yet; degrade to symbols-only.
		e.logger.Debug("no calls query available", "language", lang, "error", err)
	} else {
		callMatches, err := e.queryManager.ExecuteQuery(tree, callQuery, sourceCode)
		if err != nil {
			return nil, fmt.Errorf("failed to execute calls query: %w", err)
		}
		idents = e.collectIdentifierMatches(callMatches)
	}

	identifiers, relationships := e.resolveIdentifiers(workspaceID, idents, filePath, syms)

	e.logger.Debug("extracted file",
		"file", filePath,
		"language", string(lang),
		"symbols", len(syms),
		"identifiers", len(identifiers),
		"relationships", len(relationships))

	return &PerFileResult{
		FilePath:      filePath,
		Language:      string(lang),
		Symbols:       syms,
		Relationships: relationships,
		Identifiers:   identifiers,
	}, nil
}
