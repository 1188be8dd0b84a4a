package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kraklabs/julie/pkg/symbols"
)

// FileUpdate bundles one file's extraction result for a single
// bulk_store_symbols call.
type FileUpdate struct {
	File          symbols.File
	Symbols       []symbols.Symbol
	Relationships []symbols.Relationship
	Identifiers   []symbols.Identifier
}

// BulkStoreSymbols replaces, in one transaction, every row belonging to
// each file in updates: deletes existing symbols/relationships/identifiers
// for that file_path+workspace_id, then inserts the new set, and mirrors
// symbol rows into symbols_fts. This upholds the replace-by-file invariant:
// a file's symbol set is always fully replaced, never merged.
func (db *DB) BulkStoreSymbols(ctx context.Context, updates []FileUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return retryBusy(func() error {
		db.mu.Lock()
		defer db.mu.Unlock()
		return db.bulkStoreSymbolsLocked(ctx, updates)
	})
}

func (db *DB) bulkStoreSymbolsLocked(ctx context.Context, updates []FileUpdate) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin bulk_store_symbols: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, u := range updates {
		if err = deleteFileRows(ctx, tx, db.WorkspaceID, u.File.Path); err != nil {
			return fmt.Errorf("store: delete existing rows for %s: %w", u.File.Path, err)
		}
		if err = upsertFile(ctx, tx, db.WorkspaceID, u.File); err != nil {
			return fmt.Errorf("store: upsert file %s: %w", u.File.Path, err)
		}
		for _, sym := range u.Symbols {
			if err = insertSymbol(ctx, tx, db.WorkspaceID, sym); err != nil {
				return fmt.Errorf("store: insert symbol %s: %w", sym.ID, err)
			}
		}
		for _, rel := range u.Relationships {
			if err = insertRelationship(ctx, tx, db.WorkspaceID, rel); err != nil {
				return fmt.Errorf("store: insert relationship %s: %w", rel.ID, err)
			}
		}
		for _, ident := range u.Identifiers {
			if err = insertIdentifier(ctx, tx, db.WorkspaceID, ident); err != nil {
				return fmt.Errorf("store: insert identifier %s: %w", ident.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit bulk_store_symbols: %w", err)
	}
	return nil
}

func deleteFileRows(ctx context.Context, tx *sql.Tx, workspaceID, filePath string) error {
	stmts := []string{
		`DELETE FROM symbols_fts WHERE symbol_id IN (SELECT id FROM symbols WHERE workspace_id = ? AND file_path = ?)`,
		`DELETE FROM symbols WHERE workspace_id = ? AND file_path = ?`,
		`DELETE FROM relationships WHERE workspace_id = ? AND file_path = ?`,
		`DELETE FROM identifiers WHERE workspace_id = ? AND file_path = ?`,
		`DELETE FROM files_fts WHERE path = ?`,
	}
	for i, stmt := range stmts {
		var err error
		if i == len(stmts)-1 {
			_, err = tx.ExecContext(ctx, stmt, filePath)
		} else {
			_, err = tx.ExecContext(ctx, stmt, workspaceID, filePath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func upsertFile(ctx context.Context, tx *sql.Tx, workspaceID string, f symbols.File) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO files (path, workspace_id, language, hash, size, last_modified, last_indexed, symbol_count, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			workspace_id = excluded.workspace_id,
			language = excluded.language,
			hash = excluded.hash,
			size = excluded.size,
			last_modified = excluded.last_modified,
			last_indexed = excluded.last_indexed,
			symbol_count = excluded.symbol_count,
			content = excluded.content
	`, f.Path, workspaceID, f.Language, f.Hash, f.Size, f.LastModified, f.LastIndexed, f.SymbolCount, f.Content)
	if err != nil {
		return err
	}
	if f.Content != "" {
		_, err = tx.ExecContext(ctx, `INSERT INTO files_fts (path, content) VALUES (?, ?)`, f.Path, f.Content)
	}
	return err
}

func insertSymbol(ctx context.Context, tx *sql.Tx, workspaceID string, s symbols.Symbol) error {
	metaJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO symbols (
			id, workspace_id, name, kind, language, file_path,
			start_line, start_col, end_line, end_col, start_byte, end_byte,
			signature, doc_comment, visibility, parent_id, metadata_json, code_context
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, workspaceID, s.Name, string(s.Kind), s.Language, s.FilePath,
		s.Location.StartLine, s.Location.StartColumn, s.Location.EndLine, s.Location.EndColumn,
		s.Location.StartByte, s.Location.EndByte,
		s.Signature, s.DocComment, string(s.Visibility), s.ParentID, string(metaJSON), s.Code,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO symbols_fts (symbol_id, name, signature, doc_comment) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, s.Signature, s.DocComment)
	return err
}

func insertRelationship(ctx context.Context, tx *sql.Tx, workspaceID string, r symbols.Relationship) error {
	metaJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO relationships (id, workspace_id, from_symbol_id, to_symbol_id, to_name, kind, file_path, line_number, confidence, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, workspaceID, r.FromSymbolID, r.ToSymbolID, r.ToName, string(r.Kind), r.FilePath, r.LineNumber, r.Confidence, string(metaJSON))
	return err
}

func insertIdentifier(ctx context.Context, tx *sql.Tx, workspaceID string, id symbols.Identifier) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO identifiers (id, workspace_id, name, kind, file_path, start_line, start_col, containing_symbol_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id.ID, workspaceID, id.Name, string(id.Kind), id.FilePath, id.Line, id.Column, id.ContainingSymbolID)
	return err
}

// DeleteFile removes every row belonging to path (used when the indexer's
// discovery pass detects a file was removed from disk).
func (db *DB) DeleteFile(ctx context.Context, path string) error {
	return retryBusy(func() error {
		db.mu.Lock()
		defer db.mu.Unlock()
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := deleteFileRows(ctx, tx, db.WorkspaceID, path); err != nil {
			tx.Rollback()
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM files WHERE workspace_id = ? AND path = ?`, db.WorkspaceID, path)
		if err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// DeleteWorkspaceData cascades a delete of every row for workspaceID and
// returns the counts removed.
type DeleteCounts struct {
	Files         int64
	Symbols       int64
	Relationships int64
	Identifiers   int64
	Embeddings    int64
}

func (db *DB) DeleteWorkspaceData(ctx context.Context) (DeleteCounts, error) {
	var counts DeleteCounts
	err := retryBusy(func() error {
		db.mu.Lock()
		defer db.mu.Unlock()
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				tx.Rollback()
			}
		}()

		if counts.Files, err = execCount(ctx, tx, `DELETE FROM files WHERE workspace_id = ?`, db.WorkspaceID); err != nil {
			return err
		}
		if counts.Symbols, err = execCount(ctx, tx, `DELETE FROM symbols_fts WHERE symbol_id IN (SELECT id FROM symbols WHERE workspace_id = ?)`, db.WorkspaceID); err != nil {
			return err
		}
		if counts.Symbols, err = execCount(ctx, tx, `DELETE FROM symbols WHERE workspace_id = ?`, db.WorkspaceID); err != nil {
			return err
		}
		if counts.Relationships, err = execCount(ctx, tx, `DELETE FROM relationships WHERE workspace_id = ?`, db.WorkspaceID); err != nil {
			return err
		}
		if counts.Identifiers, err = execCount(ctx, tx, `DELETE FROM identifiers WHERE workspace_id = ?`, db.WorkspaceID); err != nil {
			return err
		}
		if counts.Embeddings, err = execCount(ctx, tx, `DELETE FROM embeddings WHERE workspace_id = ?`, db.WorkspaceID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM files_fts`); err != nil {
			return err
		}
		return tx.Commit()
	})
	return counts, err
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
