package store

import (
	"context"
	"strings"

	"github.com/kraklabs/julie/pkg/symbols"
)

// FTSSymbolHit is one symbols_fts match with its raw bm25 rank (more
// negative = better, per SQLite's convention) for pkg/query to fold into
// its own ranking formula .
type FTSSymbolHit struct {
	Symbol symbols.Symbol
	Rank   float64
}

// SearchSymbolsExact runs an FTS5 phrase query against every indexed column
// of symbols_fts (name, signature, doc_comment) and returns matching symbols
// with their bm25 rank, most-relevant first.
func (db *DB) SearchSymbolsExact(ctx context.Context, query string, limit int) ([]FTSSymbolHit, error) {
	return db.searchSymbolsFTS(ctx, `"`+escapeFTS(query)+`"`, limit)
}

// SearchSymbolsPrefix runs an FTS5 prefix query (query*) against every
// indexed column of symbols_fts, backing both the fuzzy planner's candidate recall and
// plain prefix search.
func (db *DB) SearchSymbolsPrefix(ctx context.Context, query string, limit int) ([]FTSSymbolHit, error) {
	return db.searchSymbolsFTS(ctx, escapeFTS(query)+"*", limit)
}

func (db *DB) searchSymbolsFTS(ctx context.Context, matchExpr string, limit int) ([]FTSSymbolHit, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.`+symbolColumnsPrefixed("s")+`, bm25(symbols_fts) AS rank
		FROM symbols_fts
		JOIN symbols s ON s.id = symbols_fts.symbol_id
		WHERE symbols_fts MATCH ? AND s.workspace_id = ?
		ORDER BY rank
		LIMIT ?
	`, matchExpr, db.WorkspaceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FTSSymbolHit
	for rows.Next() {
		var hit FTSSymbolHit
		var kind, visibility, metaJSON string
		if err := rows.Scan(
			&hit.Symbol.ID, &hit.Symbol.Name, &kind, &hit.Symbol.Language, &hit.Symbol.FilePath,
			&hit.Symbol.Location.StartLine, &hit.Symbol.Location.StartColumn, &hit.Symbol.Location.EndLine, &hit.Symbol.Location.EndColumn,
			&hit.Symbol.Location.StartByte, &hit.Symbol.Location.EndByte,
			&hit.Symbol.Signature, &hit.Symbol.DocComment, &visibility, &hit.Symbol.ParentID, &metaJSON, &hit.Symbol.Code,
			&hit.Rank,
		); err != nil {
			return nil, err
		}
		hit.Symbol.Kind = symbols.Kind(kind)
		hit.Symbol.Visibility = symbols.Visibility(visibility)
		out = append(out, hit)
	}
	return out, rows.Err()
}

func symbolColumnsPrefixed(alias string) string {
	cols := strings.Split(symbolColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// FTSFileHit is one files_fts content match.
type FTSFileHit struct {
	Path    string
	Snippet string
	Rank    float64
}

// SearchFilesContent runs an FTS5 query against files_fts.content and
// returns file paths with a highlighted snippet, backing "text" search
// .
func (db *DB) SearchFilesContent(ctx context.Context, query string, limit int) ([]FTSFileHit, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, snippet(files_fts, 1, '>>>', '<<<', '...', 16), bm25(files_fts)
		FROM files_fts
		WHERE files_fts MATCH ?
		ORDER BY bm25(files_fts)
		LIMIT ?
	`, escapeFTS(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FTSFileHit
	for rows.Next() {
		var h FTSFileHit
		if err := rows.Scan(&h.Path, &h.Snippet, &h.Rank); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// escapeFTS neutralizes FTS5 query-syntax metacharacters in user input by
// quoting double-quotes; callers wrap the result in the match expression
// they need (phrase, prefix).
func escapeFTS(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
