// Package indexer discovers workspace files, extracts their symbols, and
// writes the result into the persistent symbol database and vector store,
// via a three-phase discover → parallel-extract → store pipeline.
package indexer

import "time"

// MaxFileSizeBytes is the default per-file size cap.
const MaxFileSizeBytes = 1 << 20 // 1 MiB

// ScanOptions configures workspace scanning and discovery behavior.
type ScanOptions struct {
	// IgnorePatterns are additional gitignore-style patterns (beyond
	// .gitignore/.julieignore and the built-in directory blacklist).
	IgnorePatterns []string

	// MaxFileSizeBytes caps individual file size; 0 uses MaxFileSizeBytes.
	MaxFileSizeBytes int64

	// FollowSymlinks is not consulted by discovery: the directory walk
	// never follows symbolic links, whatever its value.
	FollowSymlinks bool
}

// DefaultScanOptions returns the default discovery settings.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxFileSizeBytes: MaxFileSizeBytes,
		FollowSymlinks:   false,
	}
}

// ScanStats summarizes one workspace scan/reindex pass.
type ScanStats struct {
	FilesDiscovered  int
	FilesIndexed     int
	FilesUnchanged   int
	FilesFailed      int
	FilesDeleted     int
	SymbolsExtracted int
	TotalTimeMs      int64
	DiscoveryTimeMs  int64
	IndexingTimeMs   int64
	WorkerCount      int
	Errors           []FileError
	StartTime        time.Time
	EndTime          time.Time
}

// FileError records a per-file processing failure.
type FileError struct {
	FilePath string
	Error    error
}

// ProgressCallback reports scan progress; currentFile is empty on the final
// call.
type ProgressCallback func(indexed, total int, currentFile string)

// WatchOptions configures FileWatcher debouncing.
type WatchOptions struct {
	// DebounceMs is the quiet period after the last event anywhere in the
	// workspace before one incremental reindex runs. Default: 200ms.
	DebounceMs int
}

// DefaultWatchOptions returns the recommended debounce window.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{DebounceMs: 200}
}
