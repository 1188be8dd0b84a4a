package store

import (
	"context"

	"github.com/kraklabs/julie/pkg/symbols"
)

// TypeIntelligence implements the "type-intelligence queries
// (implemented by scanning metadata_json or dedicated columns)". The
// extractor (pkg/extractor) stores supertype/returnType/parameters as
// metadata keys ("extends", "implements", "returnType", "parameters"), so
// these scan metadata_json via SQLite's json_extract rather than needing
// dedicated columns.

// FindTypeImplementations returns classes/structs whose "extends" or
// "implements" metadata names typeName.
func (db *DB) FindTypeImplementations(ctx context.Context, typeName string) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE workspace_id = ?
		  AND kind IN ('class', 'struct')
		  AND (
		    ',' || replace(json_extract(metadata_json, '$.implements'), ' ', '') || ',' LIKE '%,' || ? || ',%'
		    OR json_extract(metadata_json, '$.extends') = ?
		  )
	`, db.WorkspaceID, typeName, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// TypeHierarchy is the parents+children view of a type's inheritance graph.
type TypeHierarchy struct {
	Type     symbols.Symbol   `json:"type"`
	Parents  []symbols.Symbol `json:"parents"`
	Children []symbols.Symbol `json:"children"`
}

// FindTypeHierarchy resolves both directions of inheritance for typeName:
// parents named in its own "extends"/"implements" metadata, and children
// whose metadata names typeName.
func (db *DB) FindTypeHierarchy(ctx context.Context, typeName string) (TypeHierarchy, error) {
	var h TypeHierarchy

	typed, err := db.GetSymbolsByName(ctx, typeName)
	if err != nil {
		return h, err
	}
	for _, s := range typed {
		if s.Kind == symbols.KindClass || s.Kind == symbols.KindStruct || s.Kind == symbols.KindInterface {
			h.Type = s
			break
		}
	}

	children, err := db.FindTypeImplementations(ctx, typeName)
	if err != nil {
		return h, err
	}
	h.Children = children

	if extends := h.Type.Metadata["extends"]; extends != "" {
		parents, err := db.GetSymbolsByName(ctx, extends)
		if err != nil {
			return h, err
		}
		h.Parents = append(h.Parents, parents...)
	}
	if implements := h.Type.Metadata["implements"]; implements != "" {
		for _, name := range splitCSV(implements) {
			parents, err := db.GetSymbolsByName(ctx, name)
			if err != nil {
				return h, err
			}
			h.Parents = append(h.Parents, parents...)
		}
	}
	return h, nil
}

// FindFunctionsReturningType returns functions/methods whose "returnType"
// metadata equals typeName.
func (db *DB) FindFunctionsReturningType(ctx context.Context, typeName string) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE workspace_id = ?
		  AND kind IN ('function', 'method')
		  AND json_extract(metadata_json, '$.returnType') = ?
	`, db.WorkspaceID, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// FindFunctionsWithParameterType returns functions/methods whose
// "parameters" metadata string mentions typeName.
func (db *DB) FindFunctionsWithParameterType(ctx context.Context, typeName string) ([]symbols.Symbol, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE workspace_id = ?
		  AND kind IN ('function', 'method')
		  AND json_extract(metadata_json, '$.parameters') LIKE '%' || ? || '%'
	`, db.WorkspaceID, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSymbols(rows)
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			part := trimSpace(s[start:i])
			if part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}
