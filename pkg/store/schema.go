package store

// schemaVersion is stored in PRAGMA user_version. Open refuses a database
// whose stored version is set and differs from it; there is no migration
// path, so bumping it is a deliberate "fail loudly".
const schemaVersion = 1

// schemaDDL creates every table and FTS5 shadow table a fresh symbols.db
// needs. Statements are idempotent (CREATE ... IF NOT EXISTS) so Open can
// run them unconditionally on every startup.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS files (
		path           TEXT PRIMARY KEY,
		workspace_id   TEXT NOT NULL,
		language       TEXT NOT NULL,
		hash           TEXT NOT NULL,
		size           INTEGER NOT NULL,
		last_modified  INTEGER NOT NULL,
		last_indexed   INTEGER NOT NULL,
		symbol_count   INTEGER NOT NULL DEFAULT 0,
		content        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_workspace ON files(workspace_id)`,

	`CREATE TABLE IF NOT EXISTS symbols (
		id             TEXT PRIMARY KEY,
		workspace_id   TEXT NOT NULL,
		name           TEXT NOT NULL,
		kind           TEXT NOT NULL,
		language       TEXT NOT NULL,
		file_path      TEXT NOT NULL,
		start_line     INTEGER NOT NULL,
		start_col      INTEGER NOT NULL,
		end_line       INTEGER NOT NULL,
		end_col        INTEGER NOT NULL,
		start_byte     INTEGER NOT NULL,
		end_byte       INTEGER NOT NULL,
		signature      TEXT NOT NULL DEFAULT '',
		doc_comment    TEXT NOT NULL DEFAULT '',
		visibility     TEXT NOT NULL DEFAULT '',
		parent_id      TEXT NOT NULL DEFAULT '',
		metadata_json  TEXT NOT NULL DEFAULT '{}',
		code_context   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_ws_name ON symbols(workspace_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_ws_file ON symbols(workspace_id, file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_ws_kind ON symbols(workspace_id, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_ws_parent ON symbols(workspace_id, parent_id)`,

	`CREATE TABLE IF NOT EXISTS relationships (
		id              TEXT PRIMARY KEY,
		workspace_id    TEXT NOT NULL,
		from_symbol_id  TEXT NOT NULL,
		to_symbol_id    TEXT NOT NULL DEFAULT '',
		to_name         TEXT NOT NULL DEFAULT '',
		kind            TEXT NOT NULL,
		file_path       TEXT NOT NULL,
		line_number     INTEGER NOT NULL,
		confidence      REAL NOT NULL DEFAULT 1.0,
		metadata_json   TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rel_ws_from ON relationships(workspace_id, from_symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rel_ws_to ON relationships(workspace_id, to_symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rel_ws_file ON relationships(workspace_id, file_path)`,

	`CREATE TABLE IF NOT EXISTS identifiers (
		id                    TEXT PRIMARY KEY,
		workspace_id          TEXT NOT NULL,
		name                  TEXT NOT NULL,
		kind                  TEXT NOT NULL,
		file_path             TEXT NOT NULL,
		start_line            INTEGER NOT NULL,
		start_col             INTEGER NOT NULL,
		containing_symbol_id  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ident_ws_name ON identifiers(workspace_id, name)`,
	`CREATE INDEX IF NOT EXISTS idx_ident_ws_file ON identifiers(workspace_id, file_path)`,

	`CREATE TABLE IF NOT EXISTS embeddings (
		symbol_id   TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL,
		model       TEXT NOT NULL,
		dim         INTEGER NOT NULL,
		vector      BLOB NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_embeddings_ws ON embeddings(workspace_id)`,

	// Standalone (not external-content) FTS5 tables: bulk_store_symbols
	// maintains them directly inside its replace-by-file transaction rather
	// than via content='...' sync triggers, so a symbol_id/path column is
	// carried as UNINDEXED for joining a match back to its row.
	`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
		symbol_id UNINDEXED, name, signature, doc_comment
	)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		path UNINDEXED, content
	)`,
}

// fts5CorruptionProbe is run once at Open to detect a damaged FTS5 shadow
// table before any query relies on it. A failure here triggers rebuildFTS.
const fts5CorruptionProbe = `SELECT count(*) FROM symbols_fts WHERE symbols_fts MATCH 'a' LIMIT 1`

const rebuildSymbolsFTS = `INSERT INTO symbols_fts(symbols_fts) VALUES('rebuild')`
const rebuildFilesFTS = `INSERT INTO files_fts(files_fts) VALUES('rebuild')`
