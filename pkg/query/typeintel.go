package query

import (
	"context"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

// ExplorationType selects one of the four type-intelligence
// sub-queries, or "all" to combine every one.
type ExplorationType string

const (
	ExploreImplementations ExplorationType = "implementations"
	ExploreHierarchy       ExplorationType = "hierarchy"
	ExploreReturns         ExplorationType = "returns"
	ExploreParameters      ExplorationType = "parameters"
	ExploreAll             ExplorationType = "all"
)

// TypeIntelResult bundles whichever sub-queries exploration_type selected.
type TypeIntelResult struct {
	Implementations []symbols.Symbol        `json:"implementations,omitempty"`
	Hierarchy       *store.TypeHierarchy    `json:"hierarchy,omitempty"`
	Returns         []symbols.Symbol        `json:"returns,omitempty"`
	Parameters      []symbols.Symbol        `json:"parameters,omitempty"`
}

// TypeIntelligence implements the type-intelligence query:
// implementations, hierarchy (parents+children), returns (functions whose
// returnType == T), parameters (functions mentioning T), combined when
// exploration_type == "all".
func TypeIntelligence(ctx context.Context, db *store.DB, typeName string, exploration ExplorationType) (TypeIntelResult, error) {
	var out TypeIntelResult
	want := func(t ExplorationType) bool { return exploration == ExploreAll || exploration == t }

	if want(ExploreImplementations) {
		impls, err := db.FindTypeImplementations(ctx, typeName)
		if err != nil {
			return out, err
		}
		out.Implementations = impls
	}
	if want(ExploreHierarchy) {
		h, err := db.FindTypeHierarchy(ctx, typeName)
		if err != nil {
			return out, err
		}
		out.Hierarchy = &h
	}
	if want(ExploreReturns) {
		fns, err := db.FindFunctionsReturningType(ctx, typeName)
		if err != nil {
			return out, err
		}
		out.Returns = fns
	}
	if want(ExploreParameters) {
		fns, err := db.FindFunctionsWithParameterType(ctx, typeName)
		if err != nil {
			return out, err
		}
		out.Parameters = fns
	}
	return out, nil
}
