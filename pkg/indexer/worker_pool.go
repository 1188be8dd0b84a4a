package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/kraklabs/julie/pkg/extractor"
	"github.com/kraklabs/julie/pkg/util"
)

// FileJob is one file queued for extraction.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult is the successful extraction result for one file, carrying
// the content hash the staleness check needs.
type FileResult struct {
	FilePath    string
	JobID       int
	ContentHash string
	Content     string
	Size        int64
	ModTime     int64
	Result      *extractor.PerFileResult
}

// WorkerPool runs ExtractFile across a goroutine pool sized to match the
// parser pool (pkg/util.GetOptimalPoolSize).
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	extractor  *extractor.Extractor
	workspaceID string
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool of numWorkers goroutines (0 = auto-detect
// via util.GetOptimalPoolSize, matching the parser pool size to avoid
// blocking).
func NewWorkerPool(numWorkers int, workspaceID string, ext *extractor.Extractor, logger *slog.Logger) *WorkerPool {
	if numWorkers == 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		numWorkers:  numWorkers,
		jobs:        make(chan FileJob, numWorkers*2),
		results:     make(chan FileResult, numWorkers),
		errors:      make(chan FileError, numWorkers),
		extractor:   ext,
		workspaceID: workspaceID,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start spawns the worker goroutines.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(job)
		}
	}
}

func (wp *WorkerPool) processJob(job FileJob) {
	content, err := os.ReadFile(job.FilePath)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Error: fmt.Errorf("read file: %w", err)}
		return
	}

	info, statErr := os.Stat(job.FilePath)
	var modTime int64
	if statErr == nil {
		modTime = info.ModTime().Unix()
	}

	result, err := wp.extractor.ExtractFile(wp.workspaceID, job.FilePath, content)
	if err != nil {
		wp.jobsFailed.Add(1)
		wp.errors <- FileError{FilePath: job.FilePath, Error: fmt.Errorf("extract: %w", err)}
		return
	}

	sum := sha256.Sum256(content)
	wp.jobsProcessed.Add(1)
	wp.results <- FileResult{
		FilePath:    job.FilePath,
		JobID:       job.JobID,
		ContentHash: hex.EncodeToString(sum[:]),
		Content:     string(content),
		Size:        int64(len(content)),
		ModTime:     modTime,
		Result:      result,
	}
}

// Submit enqueues a job; blocks if the jobs channel is full.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}
	wp.jobsSubmitted.Add(1)
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled")
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileResult { return wp.results }

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError { return wp.errors }

// FinishSubmitting closes the jobs channel; idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Stop gracefully shuts the pool down; idempotent.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)
	wp.cancel()
}

// Stats reports current pool throughput counters.
type Stats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() Stats {
	return Stats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
	}
}
