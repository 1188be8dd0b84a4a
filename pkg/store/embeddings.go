package store

import (
	"context"
	"encoding/binary"
	"math"
)

// Embedding is one symbol's stored vector. Vectors live here so SQLite
// remains the single source of truth; the HNSW graph holds only graph
// structure and id mapping.
type Embedding struct {
	SymbolID  string
	Model     string
	Dim       int
	Vector    []float32
	UpdatedAt int64
}

// PutEmbedding stores (or replaces) a symbol's embedding vector. The vector
// is expected to already be L2-normalized (pkg/vectorstore normalizes at
// insert, per the numerics note).
func (db *DB) PutEmbedding(ctx context.Context, e Embedding) error {
	return retryBusy(func() error {
		db.mu.Lock()
		defer db.mu.Unlock()
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO embeddings (symbol_id, workspace_id, model, dim, vector, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol_id) DO UPDATE SET
				model = excluded.model, dim = excluded.dim, vector = excluded.vector, updated_at = excluded.updated_at
		`, e.SymbolID, db.WorkspaceID, e.Model, e.Dim, encodeVector(e.Vector), e.UpdatedAt)
		return err
	})
}

// GetEmbeddings fetches vectors for a set of symbol ids in a single read,
// used by the vector store's exact re-rank pass: HNSW supplies candidate
// recall, SQLite supplies precision.
func (db *DB) GetEmbeddings(ctx context.Context, symbolIDs []string) (map[string]Embedding, error) {
	out := make(map[string]Embedding, len(symbolIDs))
	if len(symbolIDs) == 0 {
		return out, nil
	}
	placeholders := make([]byte, 0, len(symbolIDs)*2)
	args := make([]any, 0, len(symbolIDs)+1)
	args = append(args, db.WorkspaceID)
	for i, id := range symbolIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT symbol_id, model, dim, vector, updated_at FROM embeddings
		WHERE workspace_id = ? AND symbol_id IN (`+string(placeholders)+`)
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e Embedding
		var blob []byte
		if err := rows.Scan(&e.SymbolID, &e.Model, &e.Dim, &blob, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Vector = decodeVector(blob)
		out[e.SymbolID] = e
	}
	return out, rows.Err()
}

// AllEmbeddings streams every embedding for the workspace — used to
// rebuild the HNSW graph from scratch when its on-disk structure is
// missing or corrupt (the rebuild path).
func (db *DB) AllEmbeddings(ctx context.Context) ([]Embedding, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT symbol_id, model, dim, vector, updated_at FROM embeddings WHERE workspace_id = ?`, db.WorkspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Embedding
	for rows.Next() {
		var e Embedding
		var blob []byte
		if err := rows.Scan(&e.SymbolID, &e.Model, &e.Dim, &blob, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Vector = decodeVector(blob)
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
