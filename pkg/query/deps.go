package query

import (
	"context"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

// MaxDependencyDepth is the hard cap on dependency-traversal
// depth, regardless of what the caller requests.
const MaxDependencyDepth = 10

var dependencyKinds = map[symbols.RelationshipKind]bool{
	symbols.RelImports:    true,
	symbols.RelUses:       true,
	symbols.RelCalls:      true,
	symbols.RelReferences: true,
	symbols.RelExtends:    true,
	symbols.RelImplements: true,
}

// DepNode is one node in the dependency tree: {name, kind, file, line,
// depth, children}.
type DepNode struct {
	Name     string           `json:"name"`
	Kind     symbols.Kind     `json:"kind"`
	File     string           `json:"file"`
	Line     uint32           `json:"line"`
	Depth    int              `json:"depth"`
	Children []*DepNode       `json:"children,omitempty"`
}

// DependencyTree performs a breadth-first traversal: from startName's
// definitions, follow relationships of kind
// {Imports, Uses, Calls, References, Extends, Implements} outward,
// bounded by maxDepth (capped at MaxDependencyDepth) with visited-set
// cycle detection.
func DependencyTree(ctx context.Context, db *store.DB, startName string, maxDepth int) ([]*DepNode, error) {
	if maxDepth <= 0 || maxDepth > MaxDependencyDepth {
		maxDepth = MaxDependencyDepth
	}

	roots, err := db.GetSymbolsByName(ctx, startName)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	var nodes []*DepNode
	for _, root := range roots {
		visited[root.ID] = true
		node := &DepNode{Name: root.Name, Kind: root.Kind, File: root.FilePath, Depth: 0, Line: root.Location.StartLine}
		if err := expand(ctx, db, node, root.ID, 0, maxDepth, visited); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func expand(ctx context.Context, db *store.DB, node *DepNode, symbolID string, depth, maxDepth int, visited map[string]bool) error {
	if depth >= maxDepth {
		return nil
	}
	rels, err := db.GetRelationshipsForSymbol(ctx, symbolID)
	if err != nil {
		return err
	}

	var targetIDs []string
	var symbolicNames []symbols.Relationship
	for _, r := range rels {
		if r.FromSymbolID != symbolID || !dependencyKinds[r.Kind] {
			continue
		}
		if r.ToSymbolID != "" {
			targetIDs = append(targetIDs, r.ToSymbolID)
		} else if r.ToName != "" {
			symbolicNames = append(symbolicNames, r)
		}
	}

	targets, err := db.GetSymbolsByIDs(ctx, targetIDs)
	if err != nil {
		return err
	}
	for _, r := range symbolicNames {
		byName, err := db.GetSymbolsByName(ctx, r.ToName)
		if err != nil {
			return err
		}
		targets = append(targets, byName...)
	}

	for _, t := range targets {
		if visited[t.ID] {
			continue
		}
		visited[t.ID] = true
		child := &DepNode{Name: t.Name, Kind: t.Kind, File: t.FilePath, Line: t.Location.StartLine, Depth: depth + 1}
		node.Children = append(node.Children, child)
		if err := expand(ctx, db, child, t.ID, depth+1, maxDepth, visited); err != nil {
			return err
		}
	}
	return nil
}
