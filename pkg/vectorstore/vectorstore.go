// Package vectorstore is the per-workspace semantic index: an HNSW graph
// over L2-normalized symbol embeddings, persisted to disk as structure +
// id-mapping only — the vectors themselves stay authoritative in
// pkg/store's embeddings table. Approximate nearest-neighbor search is
// provided by github.com/coder/hnsw.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kraklabs/julie/pkg/store"
)

const (
	// SemanticThreshold is the minimum cosine similarity for a semantic
	// search hit.
	SemanticThreshold = 0.3
	// SimilarCodeThreshold is the minimum cosine similarity for a
	// "similar code" hit.
	SimilarCodeThreshold = 0.8

	graphFileName = "graph.hnsw"
)

// Store wraps one workspace's HNSW graph. The zero value is not usable;
// construct via Open or New.
type Store struct {
	dir    string
	dim    int
	logger *slog.Logger

	mu    sync.RWMutex
	graph *hnsw.Graph[string]
}

// New creates an empty, unpersisted graph for dim-dimensional vectors.
func New(dir string, dim int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance
	return &Store{dir: dir, dim: dim, logger: logger, graph: g}
}

// Open loads the persisted graph at dir's graph.hnsw file. A missing or
// corrupt file is not an error here — the caller (pkg/query) falls back to
// text search per the graceful-degradation rule; Open instead
// returns (nil, false, nil) so the caller can decide whether to rebuild.
func Open(dir string, dim int, logger *slog.Logger) (*Store, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := filepath.Join(dir, graphFileName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, nil
	}
	defer f.Close()

	g, err := hnsw.Import[string](f)
	if err != nil {
		logger.Warn("hnsw graph corrupt, falling back to rebuild", "dir", dir, "error", err)
		return nil, false, nil
	}
	return &Store{dir: dir, dim: dim, logger: logger, graph: g}, true, nil
}

// Persist writes the graph's structure + id mapping to dir/graph.hnsw via a
// temp-file-then-rename, so a crash mid-write never leaves a half-written
// file for the next Open to trip over.
func (s *Store) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("vectorstore: mkdir %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, graphFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("vectorstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := hnsw.Export(s.graph, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("vectorstore: export graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vectorstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, graphFileName)); err != nil {
		return fmt.Errorf("vectorstore: rename graph file: %w", err)
	}
	return nil
}

// Normalize returns v scaled to unit L2 length's
// "vectors are L2-normalized at insert" numerics rule. A zero vector is
// returned unchanged (normalizing it is undefined).
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Insert adds (or replaces) a symbol's vector in the graph. v must already
// be normalized (callers route it through Normalize).
func (s *Store) Insert(symbolID string, v []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Add(hnsw.MakeNode(symbolID, hnsw.Vector(v)))
}

// Delete removes a symbol's vector, e.g. when its file is re-indexed with
// a different symbol id.
func (s *Store) Delete(symbolID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Delete(symbolID)
}

// Len reports the number of vectors currently in the graph.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Len()
}

// Hit is one exact-re-ranked semantic search result.
type Hit struct {
	SymbolID string
	Score    float64 // cosine similarity, [-1, 1], higher is better
}

// SearchSimilar runs HNSW candidate recall for queryVec (already
// normalized), then re-ranks the candidates by exact cosine similarity
// using vectors fetched from SQLite in a single read: HNSW supplies
// candidate recall, SQLite supplies precision. Only hits with score >=
// threshold are returned, sorted descending.
func (s *Store) SearchSimilar(ctx context.Context, db *store.DB, queryVec []float32, k int, threshold float64) ([]Hit, error) {
	s.mu.RLock()
	// Over-fetch candidates since HNSW's approximate distance and our
	// exact cosine re-rank can disagree on the tail of the ranking.
	candidates := s.graph.Search(hnsw.Vector(queryVec), k*4)
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Key
	}

	embeddings, err := db.GetEmbeddings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: fetch embeddings for re-rank: %w", err)
	}

	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		emb, ok := embeddings[id]
		if !ok {
			continue
		}
		score := cosineSimilarity(queryVec, emb.Vector)
		if score >= threshold {
			hits = append(hits, Hit{SymbolID: id, Score: score})
		}
	}

	sortHitsDesc(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// cosineSimilarity assumes both vectors are L2-normalized, so cosine
// similarity reduces to a plain inner product .
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func sortHitsDesc(hits []Hit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}

// Rebuild repopulates the graph from every embedding currently stored in
// db, for the case where the HNSW graph file is missing or corrupt but the
// embeddings table is still populated.
func Rebuild(ctx context.Context, db *store.DB, dir string, dim int, logger *slog.Logger) (*Store, error) {
	s := New(dir, dim, logger)
	embeddings, err := db.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: rebuild: load embeddings: %w", err)
	}
	for _, e := range embeddings {
		s.Insert(e.SymbolID, e.Vector)
	}
	if err := s.Persist(); err != nil {
		return nil, fmt.Errorf("vectorstore: rebuild: persist: %w", err)
	}
	return s, nil
}
