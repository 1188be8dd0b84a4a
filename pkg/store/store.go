// Package store is the symbol database: one SQLite file per workspace,
// opened in WAL mode, mirroring symbols and file contents into FTS5
// (symbols_fts, files_fts) for full-text search. The per-resource mutex style used elsewhere in this
// codebase for long-lived manager state is reused here as the per-DB
// write-serialization mutex.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps one workspace's symbols.db. Reads may run concurrently; writes
// are serialized by mu, per the "writes are serialized via a
// process-wide per-database mutex" rule.
type DB struct {
	WorkspaceID string

	conn   *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path, applies
// WAL mode, a busy timeout, and an explicit autocheckpoint, runs the schema
// DDL, and probes FTS5 for corruption.
func Open(ctx context.Context, workspaceID, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single SQLite file handle is not safe for concurrent writers;
	// reads can still fan out, so cap rather than serialize at the
	// database/sql pool level (the mu above handles write ordering).
	conn.SetMaxOpenConns(8)

	var storedVersion int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&storedVersion); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: read user_version: %w", err)
	}
	if storedVersion != 0 && storedVersion != schemaVersion {
		conn.Close()
		return nil, fmt.Errorf("store: %s has schema version %d, expected %d", path, storedVersion, schemaVersion)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA wal_autocheckpoint=1000",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA user_version=%d", schemaVersion),
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	db := &DB{WorkspaceID: workspaceID, conn: conn, logger: logger}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.probeFTS(ctx); err != nil {
		logger.Warn("fts5 corruption detected at open, rebuilding", "workspace_id", workspaceID, "error", err)
		if rebuildErr := db.rebuildFTS(ctx); rebuildErr != nil {
			conn.Close()
			return nil, fmt.Errorf("store: fts5 rebuild after corruption: %w", rebuildErr)
		}
	}

	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w (stmt: %s)", err, stmt)
		}
	}
	return nil
}

// probeFTS runs a cheap MATCH query against symbols_fts to surface shadow
// table corruption before a real query trips over it.
func (db *DB) probeFTS(ctx context.Context) error {
	var n int
	row := db.conn.QueryRowContext(ctx, fts5CorruptionProbe)
	return row.Scan(&n)
}

// rebuildFTS repairs both FTS5 tables via the documented 'rebuild' command.
// Since these are standalone (not external-content) tables, 'rebuild' only
// clears them — bulk_store_symbols repopulates on the next write. This
// still satisfies the recovery policy of rebuild, never abort.
func (db *DB) rebuildFTS(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, err := db.conn.ExecContext(ctx, rebuildSymbolsFTS); err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx, rebuildFilesFTS); err != nil {
		return err
	}
	return nil
}

// retryBusy retries fn up to 3 times with bounded backoff when SQLite
// reports the database as locked/busy, per the transient-I/O
// policy. fn must be idempotent-safe to retry (no partial external effects).
func retryBusy(fn func() error) error {
	var err error
	backoff := 25 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isBusyErr(err) {
			return err
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return err
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "locked") || contains(msg, "busy")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Stats summarizes a workspace's symbol database for the get_stats
// operation.
type Stats struct {
	FileCount         int   `json:"file_count"`
	SymbolCount       int   `json:"symbol_count"`
	RelationshipCount int   `json:"relationship_count"`
	IdentifierCount   int   `json:"identifier_count"`
	IndexSizeBytes    int64 `json:"index_size_bytes"`
}

// GetStats returns row counts and the on-disk size of the database file.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM files WHERE workspace_id = ?`, db.WorkspaceID).Scan(&s.FileCount); err != nil {
		return s, err
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM symbols WHERE workspace_id = ?`, db.WorkspaceID).Scan(&s.SymbolCount); err != nil {
		return s, err
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM relationships WHERE workspace_id = ?`, db.WorkspaceID).Scan(&s.RelationshipCount); err != nil {
		return s, err
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM identifiers WHERE workspace_id = ?`, db.WorkspaceID).Scan(&s.IdentifierCount); err != nil {
		return s, err
	}
	var pageCount, pageSize int64
	_ = db.conn.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount)
	_ = db.conn.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize)
	s.IndexSizeBytes = pageCount * pageSize
	return s, nil
}

// HasSymbolsForWorkspace reports whether any symbol row exists for this
// workspace — used by pkg/indexer's staleness check (DB empty implies a
// full index is needed).
func (db *DB) HasSymbolsForWorkspace(ctx context.Context) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM symbols WHERE workspace_id = ? LIMIT 1`, db.WorkspaceID).Scan(&n)
	return n > 0, err
}
