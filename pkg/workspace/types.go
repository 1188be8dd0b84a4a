package workspace

// Type distinguishes a workspace's role and eviction eligibility.
type Type string

const (
	TypePrimary   Type = "primary"
	TypeReference Type = "reference"
	TypeSession   Type = "session"
)

// Status is a workspace entry's health.
type Status string

const (
	StatusActive   Status = "active"
	StatusMissing  Status = "missing"
	StatusError    Status = "error"
	StatusArchived Status = "archived"
	StatusExpired  Status = "expired"
)

// EmbeddingStatus tracks semantic-index readiness.
type EmbeddingStatus string

const (
	EmbeddingNotStarted EmbeddingStatus = "not_started"
	EmbeddingGenerating EmbeddingStatus = "generating"
	EmbeddingReady      EmbeddingStatus = "ready"
	EmbeddingFailed     EmbeddingStatus = "failed"
)

// OrphanReason explains why an index directory was marked orphaned.
type OrphanReason string

const (
	OrphanNoRegistryEntry  OrphanReason = "no_registry_entry"
	OrphanPathNotFound     OrphanReason = "path_not_found"
	OrphanUnresolvablePath OrphanReason = "unresolvable_path"
	OrphanManuallyMarked   OrphanReason = "manually_marked"
	OrphanCorruptedIndex   OrphanReason = "corrupted_index"
)

// Entry is one registered workspace.
type Entry struct {
	ID              string          `json:"id"`
	OriginalPath    string          `json:"original_path"`
	DirectoryName   string          `json:"directory_name"`
	DisplayName     string          `json:"display_name"`
	WorkspaceType   Type            `json:"workspace_type"`
	CreatedAt       int64           `json:"created_at"`
	LastAccessed    int64           `json:"last_accessed"`
	ExpiresAt       *int64          `json:"expires_at,omitempty"`
	SymbolCount     int             `json:"symbol_count"`
	FileCount       int             `json:"file_count"`
	IndexSizeBytes  int64           `json:"index_size_bytes"`
	Status          Status          `json:"status"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
}

// IsExpired reports whether the entry's TTL has elapsed as of now (a Unix
// timestamp in seconds). A Primary entry (ExpiresAt == nil) never expires.
func (e *Entry) IsExpired(now int64) bool {
	return e.ExpiresAt != nil && now > *e.ExpiresAt
}

// OrphanedIndex describes an indexes/<dir> subtree with no matching
// registry entry, per the orphan-detection rule.
type OrphanedIndex struct {
	DirectoryName        string       `json:"directory_name"`
	DiscoveredAt         int64        `json:"discovered_at"`
	LastModified         int64        `json:"last_modified"`
	Reason               OrphanReason `json:"reason"`
	ScheduledForDeletion int64        `json:"scheduled_for_deletion"`
	SizeBytes            int64        `json:"size_bytes"`
}

// Config is the registry-wide tunables block.
type Config struct {
	DefaultTTLSeconds      int64 `json:"default_ttl_seconds"`
	MaxTotalSizeBytes      int64 `json:"max_total_size_bytes"`
	AutoCleanupEnabled     bool  `json:"auto_cleanup_enabled"`
	CleanupIntervalSeconds int64 `json:"cleanup_interval_seconds"`
}

// DefaultConfig returns the default tunables: 7-day reference TTL, 500MB
// total size budget, hourly auto-cleanup.
func DefaultConfig() Config {
	return Config{
		DefaultTTLSeconds:      7 * 24 * 60 * 60,
		MaxTotalSizeBytes:      500 * 1024 * 1024,
		AutoCleanupEnabled:     true,
		CleanupIntervalSeconds: 60 * 60,
	}
}

// SessionTTLSeconds is the fixed 24h TTL for Session-type workspaces
// (Reference workspaces default to 7d, Session workspaces to 24h).
const SessionTTLSeconds = 24 * 60 * 60

// Statistics summarizes the registry as a whole.
type Statistics struct {
	TotalWorkspaces      int   `json:"total_workspaces"`
	TotalOrphans         int   `json:"total_orphans"`
	TotalIndexSizeBytes  int64 `json:"total_index_size_bytes"`
	TotalSymbols         int   `json:"total_documents"`
	LastCleanup          int64 `json:"last_cleanup"`
}

// Registry is the single JSON document persisted at
// <root>/.julie/workspace_registry.json.
type Registry struct {
	Version              string                   `json:"version"`
	LastUpdated          int64                    `json:"last_updated"`
	PrimaryWorkspace      *Entry                   `json:"primary_workspace,omitempty"`
	ReferenceWorkspaces   map[string]*Entry        `json:"reference_workspaces"`
	OrphanedIndexes       map[string]*OrphanedIndex `json:"orphaned_indexes"`
	Config                Config                   `json:"config"`
	Statistics            Statistics               `json:"statistics"`
}

// RegistryVersion is the current on-disk schema version for new registries.
const RegistryVersion = "1.0"

// NewRegistry returns an empty registry with default config.
func NewRegistry(now int64) *Registry {
	return &Registry{
		Version:             RegistryVersion,
		LastUpdated:         now,
		ReferenceWorkspaces: make(map[string]*Entry),
		OrphanedIndexes:     make(map[string]*OrphanedIndex),
		Config:              DefaultConfig(),
		Statistics:          Statistics{LastCleanup: now},
	}
}
