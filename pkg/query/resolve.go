package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/vectorstore"
	"github.com/kraklabs/julie/pkg/workspace"
)

// ErrWorkspaceNotFound is returned when a tool call names a workspace id
// with no registry entry, per the workspace-resolution state
// machine.
var ErrWorkspaceNotFound = fmt.Errorf("workspace not found")

// Handle bundles everything a query needs about one resolved workspace:
// its database, optional vector index, and filesystem root (for
// mode=full code extraction, per the file-symbols rule that
// reference-workspace files are read from the reference workspace's own
// root).
type Handle struct {
	WorkspaceID string
	DB          *store.DB
	Vectors     *vectorstore.Store
	Root        string
}

// Resolver implements the workspace-resolution state machine:
// "primary" uses the handler-held primary DB/HNSW; any other value is
// looked up in the registry and its DB/HNSW opened on demand, cached for
// the life of the process.
type Resolver struct {
	manager *workspace.Manager
	primary Handle

	mu    sync.Mutex
	cache map[string]*Handle
}

// NewResolver builds a resolver backed by manager's registry, with
// primary already open and handler-held.
func NewResolver(manager *workspace.Manager, primary Handle) *Resolver {
	return &Resolver{manager: manager, primary: primary, cache: make(map[string]*Handle)}
}

// Resolve maps a fast_search/fast_goto/... "workspace" parameter to a
// Handle. "" and "primary" both mean the primary workspace.
func (r *Resolver) Resolve(ctx context.Context, workspaceParam string) (*Handle, error) {
	if workspaceParam == "" || workspaceParam == "primary" {
		return &r.primary, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.cache[workspaceParam]; ok {
		return h, nil
	}

	entry, err := r.manager.Get(workspaceParam)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, workspaceParam)
	}

	layout := r.manager.Layout()
	db, err := store.Open(ctx, workspaceParam, layout.DBPath(workspaceParam), nil)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s db: %w", workspaceParam, err)
	}

	var vectors *vectorstore.Store
	if vs, found, verr := vectorstore.Open(layout.VectorsDir(workspaceParam), 0, nil); verr == nil && found {
		vectors = vs
	}

	h := &Handle{WorkspaceID: workspaceParam, DB: db, Vectors: vectors, Root: entry.OriginalPath}
	r.cache[workspaceParam] = h
	return h, nil
}

// Close releases every cached reference-workspace DB handle opened by
// Resolve. The primary handle is owned by the caller, not the Resolver,
// and is left untouched.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, h := range r.cache {
		if err := h.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.cache = make(map[string]*Handle)
	return firstErr
}
