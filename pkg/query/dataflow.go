package query

import (
	"context"
	"strings"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
	"github.com/kraklabs/julie/pkg/vectorstore"
)

// Layer is one stage of the cross-language data-flow pipeline.
type Layer string

const (
	LayerFrontend   Layer = "frontend"
	LayerApiGateway Layer = "api_gateway"
	LayerBackend    Layer = "backend"
	LayerDatabase   Layer = "database"
)

var layerOrder = []Layer{LayerFrontend, LayerApiGateway, LayerBackend, LayerDatabase}

// ConnectionType names how one data-flow step connects to the next,
//.
type ConnectionType string

const (
	ConnDirectCall     ConnectionType = "direct_call"
	ConnNetworkCall    ConnectionType = "network_call"
	ConnDatabaseQuery  ConnectionType = "database_query"
	ConnSemanticMatch  ConnectionType = "semantic_match"
	ConnTypeMapping    ConnectionType = "type_mapping"
	ConnImportUsage    ConnectionType = "import_usage"
	ConnConfigRef      ConnectionType = "config_reference"
	ConnDataFlow       ConnectionType = "data_flow"
)

// confidenceFloor is the default trace-termination floor.
const confidenceFloor = 0.3

// Step is one hop of a data-flow trace.
type Step struct {
	Symbol         symbols.Symbol `json:"symbol"`
	ConnectionType ConnectionType `json:"connection_type"`
	Confidence     float64        `json:"confidence"`
	Layer          Layer          `json:"layer"`
	Evidence       []string       `json:"evidence,omitempty"`
}

// Trace is a full cross-language data-flow trace.
type Trace struct {
	Steps             []Step  `json:"steps"`
	Complete          bool    `json:"complete"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// classifyLayer assigns a pipeline layer to a symbol using path/language
// heuristics — the closest stand-in for the original's per-project
// configuration, since this spec treats project layout as opaque.
func classifyLayer(s symbols.Symbol) Layer {
	p := strings.ToLower(s.FilePath)
	switch {
	case strings.Contains(p, "migrat") || strings.Contains(p, ".sql") || strings.Contains(p, "/db/") || strings.Contains(p, "repository"):
		return LayerDatabase
	case strings.Contains(p, "route") || strings.Contains(p, "gateway") || strings.Contains(p, "/api/") || strings.Contains(p, "controller"):
		return LayerApiGateway
	case s.Language == "typescript" || s.Language == "javascript" || strings.Contains(p, "component") || strings.Contains(p, "/frontend/") || strings.Contains(p, "/ui/"):
		return LayerFrontend
	default:
		return LayerBackend
	}
}

// TraceDataFlow implements the cross-language data-flow tracer:
// step selection tries (a) a direct relationship, then (b) a pattern-based
// layer transition (name/route matching across languages), then (c)
// embedding similarity, stopping at maxDepth, when a step's confidence
// falls below confidenceFloor, or when no candidate is found.
func TraceDataFlow(ctx context.Context, db *store.DB, vectors *vectorstore.Store, embedder Embedder, startName string, maxDepth int) (Trace, error) {
	if maxDepth <= 0 || maxDepth > MaxDependencyDepth {
		maxDepth = MaxDependencyDepth
	}

	starts, err := db.GetSymbolsByName(ctx, startName)
	if err != nil || len(starts) == 0 {
		return Trace{}, err
	}
	current := starts[0]

	trace := Trace{OverallConfidence: 1.0}
	visited := map[string]bool{current.ID: true}
	layers := map[Layer]bool{classifyLayer(current): true}

	for depth := 0; depth < maxDepth; depth++ {
		step, ok, err := nextStep(ctx, db, vectors, embedder, current, visited)
		if err != nil {
			return trace, err
		}
		if !ok || step.Confidence < confidenceFloor {
			break
		}
		trace.Steps = append(trace.Steps, step)
		trace.OverallConfidence *= step.Confidence
		layers[step.Layer] = true
		visited[step.Symbol.ID] = true
		current = step.Symbol
	}

	trace.Complete = len(layers) >= 2 && trace.OverallConfidence > 0.5
	return trace, nil
}

// nextStep tries direct relationship lookup, then pattern-based layer
// transition, then embedding similarity, in that order.
func nextStep(ctx context.Context, db *store.DB, vectors *vectorstore.Store, embedder Embedder, from symbols.Symbol, visited map[string]bool) (Step, bool, error) {
	if step, ok, err := directRelationshipStep(ctx, db, from, visited); err != nil || ok {
		return step, ok, err
	}
	if step, ok, err := patternTransitionStep(ctx, db, from, visited); err != nil || ok {
		return step, ok, err
	}
	if embedder != nil && vectors != nil {
		return semanticStep(ctx, db, vectors, embedder, from, visited)
	}
	return Step{}, false, nil
}

func directRelationshipStep(ctx context.Context, db *store.DB, from symbols.Symbol, visited map[string]bool) (Step, bool, error) {
	rels, err := db.GetRelationshipsForSymbol(ctx, from.ID)
	if err != nil {
		return Step{}, false, err
	}
	for _, r := range rels {
		if r.FromSymbolID != from.ID || r.ToSymbolID == "" || visited[r.ToSymbolID] {
			continue
		}
		targets, err := db.GetSymbolsByIDs(ctx, []string{r.ToSymbolID})
		if err != nil || len(targets) == 0 {
			continue
		}
		conn := ConnDataFlow
		switch r.Kind {
		case symbols.RelCalls:
			conn = ConnDirectCall
		case symbols.RelImports:
			conn = ConnImportUsage
		case symbols.RelExtends, symbols.RelImplements:
			conn = ConnTypeMapping
		}
		return Step{
			Symbol:         targets[0],
			ConnectionType: conn,
			Confidence:     maxFloat(r.Confidence, confidenceFloor),
			Layer:          classifyLayer(targets[0]),
			Evidence:       []string{"relationship:" + string(r.Kind)},
		}, true, nil
	}
	return Step{}, false, nil
}

// patternTransitionStep looks for a symbol in a different layer whose name
// textually matches from's name — the stand-in for "a frontend onClick
// handler whose name matches a backend route string" .
func patternTransitionStep(ctx context.Context, db *store.DB, from symbols.Symbol, visited map[string]bool) (Step, bool, error) {
	candidates, err := db.SearchSymbolsPrefix(ctx, from.Name, 20)
	if err != nil {
		return Step{}, false, err
	}
	fromLayer := classifyLayer(from)
	for _, hit := range candidates {
		if hit.Symbol.ID == from.ID || visited[hit.Symbol.ID] {
			continue
		}
		layer := classifyLayer(hit.Symbol)
		if layer == fromLayer {
			continue
		}
		return Step{
			Symbol:         hit.Symbol,
			ConnectionType: ConnNetworkCall,
			Confidence:     0.5,
			Layer:          layer,
			Evidence:       []string{"name_match:" + hit.Symbol.Name},
		}, true, nil
	}
	return Step{}, false, nil
}

func semanticStep(ctx context.Context, db *store.DB, vectors *vectorstore.Store, embedder Embedder, from symbols.Symbol, visited map[string]bool) (Step, bool, error) {
	vec, err := embedder.Embed(ctx, from.Name+" "+from.Signature)
	if err != nil {
		return Step{}, false, err
	}
	hits, err := vectors.SearchSimilar(ctx, db, vec, 5, confidenceFloor)
	if err != nil {
		return Step{}, false, err
	}
	for _, h := range hits {
		if h.SymbolID == from.ID || visited[h.SymbolID] {
			continue
		}
		targets, err := db.GetSymbolsByIDs(ctx, []string{h.SymbolID})
		if err != nil || len(targets) == 0 {
			continue
		}
		return Step{
			Symbol:         targets[0],
			ConnectionType: ConnSemanticMatch,
			Confidence:     h.Score,
			Layer:          classifyLayer(targets[0]),
			Evidence:       []string{"embedding_similarity"},
		}, true, nil
	}
	return Step{}, false, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
