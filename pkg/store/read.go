package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/kraklabs/julie/pkg/symbols"
)

func scanSymbolRow(rows *sql.Rows) (symbols.Symbol, error) {
	var s symbols.Symbol
	var kind, visibility, metaJSON string
	err := rows.Scan(
		&s.ID, &s.Name, &kind, &s.Language, &s.FilePath,
		&s.Location.StartLine, &s.Location.StartColumn, &s.Location.EndLine, &s.Location.EndColumn,
		&s.Location.StartByte, &s.Location.EndByte,
		&s.Signature, &s.DocComment, &visibility, &s.ParentID, &metaJSON, &s.Code,
	)
	if err != nil {
		return s, err
	}
	s.Kind = symbols.Kind(kind)
	s.Visibility = symbols.Visibility(visibility)
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &s.Metadata)
	}
	return s, nil
}

const symbolColumns = `id, name, kind, language, file_path, start_line, start_col, end_line, end_col, start_byte, end_byte, signature, doc_comment, visibility, parent_id, metadata_json, code_context`

// GetSymbolsByName returns every symbol in the workspace with the given
// unqualified name.
func (db *DB) GetSymbolsByName(ctx context.Context, name string) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE workspace_id = ? AND name = ?`, db.WorkspaceID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// GetSymbolsByIDs returns the symbols matching ids, in no particular order.
func (db *DB) GetSymbolsByIDs(ctx context.Context, ids []string) ([]symbols.Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, db.WorkspaceID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := db.conn.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE workspace_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// GetSymbolsForFile returns every symbol extracted from path, ordered by
// start_line — used directly by file-replace-atomicity checks and by
// get_symbols.
func (db *DB) GetSymbolsForFile(ctx context.Context, path string) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE workspace_id = ? AND file_path = ? ORDER BY start_line, start_col`, db.WorkspaceID, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// AllSymbols returns every symbol in the workspace, for the regex search
// strategy's linear scan  where FTS5 match syntax
// can't express an unrestricted "match everything" query.
func (db *DB) AllSymbols(ctx context.Context) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE workspace_id = ?`, db.WorkspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

func collectSymbols(rows *sql.Rows) ([]symbols.Symbol, error) {
	var out []symbols.Symbol
	for rows.Next() {
		s, err := scanSymbolRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRelationshipsForSymbol returns every relationship where id is either
// endpoint.
func (db *DB) GetRelationshipsForSymbol(ctx context.Context, id string) ([]symbols.Relationship, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, from_symbol_id, to_symbol_id, to_name, kind, file_path, line_number, confidence, metadata_json
		FROM relationships WHERE workspace_id = ? AND (from_symbol_id = ? OR to_symbol_id = ?)
	`, db.WorkspaceID, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbols.Relationship
	for rows.Next() {
		var r symbols.Relationship
		var kind, metaJSON string
		if err := rows.Scan(&r.ID, &r.FromSymbolID, &r.ToSymbolID, &r.ToName, &kind, &r.FilePath, &r.LineNumber, &r.Confidence, &metaJSON); err != nil {
			return nil, err
		}
		r.Kind = symbols.RelationshipKind(kind)
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &r.Metadata)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRelationshipsByToName resolves relationships stored symbolically
// (ToSymbolID empty, ToName set) against the current symbol table for a
// given target name — the query-time resolution decided in DESIGN.md's
// Open Question #1.
func (db *DB) GetRelationshipsByToName(ctx context.Context, name string) ([]symbols.Relationship, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, from_symbol_id, to_symbol_id, to_name, kind, file_path, line_number, confidence, metadata_json
		FROM relationships WHERE workspace_id = ? AND to_name = ?
	`, db.WorkspaceID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbols.Relationship
	for rows.Next() {
		var r symbols.Relationship
		var kind, metaJSON string
		if err := rows.Scan(&r.ID, &r.FromSymbolID, &r.ToSymbolID, &r.ToName, &kind, &r.FilePath, &r.LineNumber, &r.Confidence, &metaJSON); err != nil {
			return nil, err
		}
		r.Kind = symbols.RelationshipKind(kind)
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &r.Metadata)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetIdentifiersByName returns every identifier occurrence with the given
// name, optionally restricted to a kind set (nil/empty = any kind).
func (db *DB) GetIdentifiersByName(ctx context.Context, name string, kinds []symbols.IdentifierKind) ([]symbols.Identifier, error) {
	query := `SELECT id, name, kind, file_path, start_line, start_col, containing_symbol_id FROM identifiers WHERE workspace_id = ? AND name = ?`
	args := []any{db.WorkspaceID, name}
	if len(kinds) > 0 {
		placeholders := strings.Repeat("?,", len(kinds))
		placeholders = placeholders[:len(placeholders)-1]
		query += ` AND kind IN (` + placeholders + `)`
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []symbols.Identifier
	for rows.Next() {
		var id symbols.Identifier
		var kind string
		if err := rows.Scan(&id.ID, &id.Name, &kind, &id.FilePath, &id.Line, &id.Column, &id.ContainingSymbolID); err != nil {
			return nil, err
		}
		id.Kind = symbols.IdentifierKind(kind)
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetFile returns the stored file record for path, if indexed.
func (db *DB) GetFile(ctx context.Context, path string) (symbols.File, bool, error) {
	var f symbols.File
	row := db.conn.QueryRowContext(ctx, `SELECT path, language, hash, size, last_modified, last_indexed, symbol_count FROM files WHERE workspace_id = ? AND path = ?`, db.WorkspaceID, path)
	err := row.Scan(&f.Path, &f.Language, &f.Hash, &f.Size, &f.LastModified, &f.LastIndexed, &f.SymbolCount)
	if err == sql.ErrNoRows {
		return f, false, nil
	}
	return f, err == nil, err
}

// ListFilePaths returns every indexed file path and its stored hash, used
// by the indexer's staleness/set-difference check .
func (db *DB) ListFilePaths(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, hash FROM files WHERE workspace_id = ?`, db.WorkspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// MaxLastModified returns the maximum last_modified across all indexed
// files, used by the staleness check's mtime comparison.
func (db *DB) MaxLastModified(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `SELECT max(last_modified) FROM files WHERE workspace_id = ?`, db.WorkspaceID).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}
