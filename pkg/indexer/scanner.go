package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/pathutil"
	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
	"github.com/kraklabs/julie/pkg/util"
	"github.com/kraklabs/julie/pkg/vectorstore"
)

// Embedder turns a symbol's indexable text into a fixed-length vector. The
// ONNX embedding runtime itself is a black box per the Non-goals; this
// interface is the seam a concrete backend plugs into. A nil Embedder
// disables the embed phase entirely (JULIE_SKIP_EMBEDDINGS or no model
// configured), and semantic search falls back to text search in that case.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// VectorWriter is the subset of *vectorstore.Store the indexer needs,
// narrowed to keep this package's dependency on vectorstore minimal and
// mockable.
type VectorWriter interface {
	Insert(symbolID string, vec []float32)
	Delete(symbolID string) bool
	Persist() error
}

// WorkspaceScanner scans a workspace root, extracts every wired-language
// file, and replaces its rows in the symbol database via a three-phase
// discover → parallel-extract → store pipeline.
type WorkspaceScanner struct {
	workspaceID string
	root        string
	db          *store.DB
	vectors     VectorWriter
	embedder    Embedder
	extractor   *extractor.Extractor
	logger      *slog.Logger
}

// NewWorkspaceScanner builds a scanner that writes into db (and, if vectors
// and embedder are both non-nil, into the vector store).
func NewWorkspaceScanner(
	workspaceID, root string,
	db *store.DB,
	vectors VectorWriter,
	embedder Embedder,
	ext *extractor.Extractor,
	logger *slog.Logger,
) *WorkspaceScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceScanner{
		workspaceID: workspaceID,
		root:        root,
		db:          db,
		vectors:     vectors,
		embedder:    embedder,
		extractor:   ext,
		logger:      logger,
	}
}

// FullIndex discovers and indexes every eligible file in the workspace,
// unconditionally — used when the database is empty (the "DB empty → full
// index" branch of the staleness check).
func (ws *WorkspaceScanner) FullIndex(ctx context.Context, opts ScanOptions, progress ProgressCallback) (*ScanStats, error) {
	start := time.Now()
	stats := &ScanStats{StartTime: start}

	discoveryStart := time.Now()
	files, err := discoverFiles(ws.root, opts)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	if len(files) == 0 {
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(start).Milliseconds()
		return stats, nil
	}

	indexStart := time.Now()
	if err := ws.processParallel(ctx, files, stats, progress); err != nil {
		return nil, fmt.Errorf("process files: %w", err)
	}
	stats.IndexingTimeMs = time.Since(indexStart).Milliseconds()

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(start).Milliseconds()
	return stats, nil
}

// IncrementalIndex re-scans the workspace, skipping files whose content
// hash matches what's already stored, and removes rows for files that no
// longer exist on disk — the staleness check + incremental
// update rule.
func (ws *WorkspaceScanner) IncrementalIndex(ctx context.Context, opts ScanOptions, progress ProgressCallback) (*ScanStats, error) {
	start := time.Now()
	stats := &ScanStats{StartTime: start}

	discoveryStart := time.Now()
	files, err := discoverFiles(ws.root, opts)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	storedHashes, err := ws.db.ListFilePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored file paths: %w", err)
	}

	seen := make(map[string]bool, len(files))
	var changed []string
	for _, f := range files {
		relUnix, relErr := pathutil.ToRelativeUnix(f, ws.root)
		if relErr != nil {
			continue
		}
		seen[relUnix] = true

		storedHash, known := storedHashes[relUnix]
		if known {
			hash, hashErr := hashFile(f)
			if hashErr == nil && hash == storedHash {
				stats.FilesUnchanged++
				continue
			}
		}
		changed = append(changed, f)
	}

	// Deleted files: present in the DB, absent from this walk.
	for relPath := range storedHashes {
		if !seen[relPath] {
			if err := ws.db.DeleteFile(ctx, relPath); err != nil {
				ws.logger.Warn("incremental index: delete removed file failed", "path", relPath, "error", err)
				continue
			}
			if ws.vectors != nil {
				ws.vectors.Delete(relPath)
			}
			stats.FilesDeleted++
		}
	}

	if len(changed) == 0 {
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(start).Milliseconds()
		return stats, nil
	}

	indexStart := time.Now()
	if err := ws.processIncremental(ctx, changed, nil, stats, progress); err != nil {
		return nil, fmt.Errorf("process changed files: %w", err)
	}
	stats.IndexingTimeMs = time.Since(indexStart).Milliseconds()

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(start).Milliseconds()
	return stats, nil
}

// hashFile computes the SHA-256 hash of a file's content, for the
// pre-extraction staleness comparison in IncrementalIndex.
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NeedsReindex implements the staleness check: empty DB, a
// newer mtime on disk than recorded, or a file-set mismatch all trigger an
// incremental pass.
func (ws *WorkspaceScanner) NeedsReindex(ctx context.Context, opts ScanOptions) (bool, error) {
	has, err := ws.db.HasSymbolsForWorkspace(ctx)
	if err != nil {
		return false, err
	}
	if !has {
		return true, nil
	}

	dbMax, err := ws.db.MaxLastModified(ctx)
	if err != nil {
		return false, err
	}

	files, err := discoverFiles(ws.root, opts)
	if err != nil {
		return false, err
	}
	storedHashes, err := ws.db.ListFilePaths(ctx)
	if err != nil {
		return false, err
	}
	if len(files) != len(storedHashes) {
		return true, nil
	}

	var diskMax int64
	for _, f := range files {
		relUnix, relErr := pathutil.ToRelativeUnix(f, ws.root)
		if relErr != nil {
			continue
		}
		if _, known := storedHashes[relUnix]; !known {
			return true, nil
		}
		if info, statErr := os.Stat(f); statErr == nil {
			if mt := info.ModTime().Unix(); mt > diskMax {
				diskMax = mt
			}
		}
	}
	return diskMax > dbMax, nil
}

func (ws *WorkspaceScanner) processParallel(ctx context.Context, files []string, stats *ScanStats, progress ProgressCallback) error {
	return ws.processIncremental(ctx, files, nil, stats, progress)
}

// processIncremental runs the worker pool over files, skipping any whose
// content hash matches storedHashes[path], and bulk-stores every changed
// result in a single transaction.
func (ws *WorkspaceScanner) processIncremental(
	ctx context.Context,
	files []string,
	storedHashes map[string]string,
	stats *ScanStats,
	progress ProgressCallback,
) error {
	total := len(files)
	pool := NewWorkerPool(0, ws.workspaceID, ws.extractor, ws.logger)
	stats.WorkerCount = pool.numWorkers
	pool.Start()
	defer pool.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var updates []store.FileUpdate
	indexed := atomic.Int32{}
	failed := atomic.Int32{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case result, ok := <-pool.Results():
				if !ok {
					return
				}
				relUnix, relErr := pathutil.ToRelativeUnix(result.FilePath, ws.root)
				if relErr != nil {
					relUnix = result.FilePath
				}

				if storedHashes != nil && storedHashes[relUnix] == result.ContentHash {
					stats.FilesUnchanged++
				} else {
					updates = append(updates, store.FileUpdate{
						File: symbols.File{
							Path:         relUnix,
							Language:     result.Result.Language,
							Hash:         result.ContentHash,
							Size:         result.Size,
							LastModified: result.ModTime,
							LastIndexed:  time.Now().Unix(),
							SymbolCount:  len(result.Result.Symbols),
							Content:      result.Content,
						},
						Symbols:       result.Result.Symbols,
						Relationships: result.Result.Relationships,
						Identifiers:   result.Result.Identifiers,
					})
					stats.SymbolsExtracted += len(result.Result.Symbols)
					stats.FilesIndexed++
				}

				count := indexed.Add(1)
				if progress != nil {
					progress(int(count), total, result.FilePath)
				}
				if int(count)+int(failed.Load()) >= total {
					cancel()
					return
				}

			case fileErr, ok := <-pool.Errors():
				if !ok {
					return
				}
				stats.Errors = append(stats.Errors, fileErr)
				stats.FilesFailed++
				count := failed.Add(1)
				if int(indexed.Load())+int(count) >= total {
					cancel()
					return
				}
			}
		}
	}()

	for i, f := range files {
		if err := pool.Submit(FileJob{FilePath: f, JobID: i}); err != nil {
			return err
		}
	}
	pool.FinishSubmitting()
	<-done

	if len(updates) == 0 {
		return nil
	}

	if err := ws.db.BulkStoreSymbols(ctx, updates); err != nil {
		return fmt.Errorf("bulk store symbols: %w", err)
	}

	if ws.vectors != nil && ws.embedder != nil {
		ws.embedAndInsert(ctx, updates)
	}

	if progress != nil {
		progress(total, total, "")
	}
	return nil
}

// embedAndInsert computes an embedding for every newly stored symbol's
// signature and inserts it into both the SQLite embeddings table (source
// of truth) and the in-memory HNSW graph. Embedding calls
// run concurrently, capped to the same pool size as file extraction — the
// embedder is typically a network/ONNX-runtime call, so this is the one
// indexing phase where fanning out actually shortens wall-clock time;
// store.DB and vectorstore.Store both already serialize their own writes,
// so no extra locking is needed here.
func (ws *WorkspaceScanner) embedAndInsert(ctx context.Context, updates []store.FileUpdate) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(util.GetOptimalPoolSize())

	for _, u := range updates {
		for _, sym := range u.Symbols {
			sym := sym
			g.Go(func() error {
				text := sym.Name + " " + sym.Signature
				vec, err := ws.embedder.Embed(gctx, text)
				if err != nil {
					ws.logger.Warn("embed symbol failed", "symbol_id", sym.ID, "error", err)
					return nil
				}
				vec = vectorstore.Normalize(vec)
				if err := ws.db.PutEmbedding(gctx, store.Embedding{
					SymbolID:  sym.ID,
					Model:     fmt.Sprintf("dim%d", ws.embedder.Dim()),
					Dim:       ws.embedder.Dim(),
					Vector:    vec,
					UpdatedAt: time.Now().Unix(),
				}); err != nil {
					ws.logger.Warn("persist embedding failed", "symbol_id", sym.ID, "error", err)
					return nil
				}
				ws.vectors.Insert(sym.ID, vec)
				return nil
			})
		}
	}
	_ = g.Wait() // errors are already logged per-symbol above; a failed embed just skips that symbol

	if err := ws.vectors.Persist(); err != nil {
		ws.logger.Warn("persist vector graph failed", "error", err)
	}
}
