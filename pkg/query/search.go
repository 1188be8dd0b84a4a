package query

import (
	"context"
	"fmt"
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
	"github.com/kraklabs/julie/pkg/vectorstore"
)

// Method is one of the five search strategies.
type Method string

const (
	MethodExact    Method = "exact"
	MethodFuzzy    Method = "fuzzy"
	MethodRegex    Method = "regex"
	MethodSemantic Method = "semantic"
	MethodText     Method = "text"
)

// Target distinguishes symbol-name search from file-content search
// (fast_search's search_target field).
type Target string

const (
	TargetDefinitions Target = "definitions"
	TargetContent     Target = "content"
)

// Embedder turns a query string into a fixed-length vector for semantic
// search. The ONNX embedding runtime itself is out of scope ;
// this is the seam a concrete backend plugs into, mirroring
// pkg/indexer.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

// SearchOptions carries fast_search's parameters .
type SearchOptions struct {
	Query       string
	Method      Method
	Target      Target
	Limit       int
	Language    string
	FilePattern string
	ContextFile string
}

// LineHit is one content-search result ("text" method / Target=content).
type LineHit struct {
	FilePath string  `json:"file_path"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

// Engine holds the stdlib regex cache shared across queries in one process.
// A single Engine is expected to back every workspace's searches — the
// cache is keyed by pattern text, not by workspace, since a compiled
// *regexp.Regexp is workspace-agnostic.
type Engine struct {
	regexCache *lru.Cache[string, *regexp.Regexp]
	embedder   Embedder
}

// NewEngine builds a search engine with a bounded regex cache for the
// cached-compiled-pattern search method. embedder may be nil, in which case
// semantic search falls back to exact/text search.
func NewEngine(embedder Embedder) *Engine {
	cache, _ := lru.New[string, *regexp.Regexp](256)
	return &Engine{regexCache: cache, embedder: embedder}
}

// EmbedderOrNil exposes the engine's configured embedder, for callers (like
// fast_explore's "logic" mode) that need to pass it to a query function that
// doesn't otherwise go through Engine.Search.
func (e *Engine) EmbedderOrNil() Embedder { return e.embedder }

// compileRegex returns a cached compiled pattern, compiling and caching it
// on a miss.
func (e *Engine) compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := e.regexCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile regex %q: %w", pattern, err)
	}
	e.regexCache.Add(pattern, re)
	return re, nil
}

// Search dispatches fast_search to the method named in opts, against db
// (the already-resolved workspace database) and, for semantic search,
// vectors (may be nil).
func (e *Engine) Search(ctx context.Context, db *store.DB, vectors *vectorstore.Store, opts SearchOptions) ([]Scored, []LineHit, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Target == TargetContent || opts.Method == MethodText {
		hits, err := e.searchText(ctx, db, opts)
		return nil, hits, err
	}

	switch opts.Method {
	case MethodExact, "":
		return e.searchExact(ctx, db, opts)
	case MethodFuzzy:
		return e.searchFuzzy(ctx, db, opts)
	case MethodRegex:
		return e.searchRegex(ctx, db, opts)
	case MethodSemantic:
		return e.searchSemantic(ctx, db, vectors, opts)
	default:
		return nil, nil, fmt.Errorf("unknown search method %q", opts.Method)
	}
}

func (e *Engine) searchExact(ctx context.Context, db *store.DB, opts SearchOptions) ([]Scored, []LineHit, error) {
	fts, err := db.SearchSymbolsExact(ctx, opts.Query, opts.Limit*4)
	if err != nil {
		return nil, nil, err
	}
	if len(fts) == 0 {
		fts, err = db.SearchSymbolsPrefix(ctx, opts.Query, opts.Limit*4)
		if err != nil {
			return nil, nil, err
		}
	}
	return e.rankFTS(fts, opts), nil, nil
}

func (e *Engine) searchFuzzy(ctx context.Context, db *store.DB, opts SearchOptions) ([]Scored, []LineHit, error) {
	candidates, err := db.SearchSymbolsPrefix(ctx, opts.Query, opts.Limit*8)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		// A typo before the end of the query defeats prefix recall, so fall
		// back to scoring every symbol by edit distance.
		all, err := db.AllSymbols(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, s := range all {
			candidates = append(candidates, store.FTSSymbolHit{Symbol: s})
		}
	}
	maxEdits := maxEditsFor(opts.Query)
	var out []Scored
	for _, hit := range candidates {
		if !matchesFilters(hit.Symbol, opts) {
			continue
		}
		dist := levenshtein(hit.Symbol.Name, opts.Query, maxEdits)
		if dist > maxEdits {
			continue
		}
		base := score(hit.Rank, hit.Symbol, opts.ContextFile)
		// Closer edit distance outranks a merely-prefix-matched FTS hit.
		base *= 1.0 / float64(dist+1)
		out = append(out, Scored{Symbol: hit.Symbol, Score: base})
	}
	sortScored(out)
	return capScored(out, opts.Limit), nil, nil
}

func (e *Engine) searchRegex(ctx context.Context, db *store.DB, opts SearchOptions) ([]Scored, []LineHit, error) {
	re, err := e.compileRegex(opts.Query)
	if err != nil {
		return nil, nil, err
	}

	deadline := time.Now().Add(5 * time.Second)
	all, err := db.AllSymbols(ctx)
	if err != nil {
		return nil, nil, err
	}

	var out []Scored
	for i, s := range all {
		if i%256 == 0 && time.Now().After(deadline) {
			break
		}
		if !matchesFilters(s, opts) {
			continue
		}
		if re.MatchString(s.Name) {
			out = append(out, Scored{Symbol: s, Score: score(0, s, opts.ContextFile)})
		}
	}
	sortScored(out)
	return capScored(out, opts.Limit), nil, nil
}

func (e *Engine) searchSemantic(ctx context.Context, db *store.DB, vectors *vectorstore.Store, opts SearchOptions) ([]Scored, []LineHit, error) {
	if e.embedder == nil || vectors == nil {
		return e.searchExact(ctx, db, opts)
	}
	vec, err := e.embedder.Embed(ctx, opts.Query)
	if err != nil {
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}
	vec = vectorstore.Normalize(vec)
	hits, err := vectors.SearchSimilar(ctx, db, vec, opts.Limit*2, 0.0)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(hits))
	simByID := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.SymbolID
		simByID[h.SymbolID] = h.Score
	}
	syms, err := db.GetSymbolsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	var out []Scored
	for _, s := range syms {
		if !matchesFilters(s, opts) {
			continue
		}
		out = append(out, Scored{Symbol: s, Score: simByID[s.ID] * kindWeight(s.Kind) * contextBonus(s.FilePath, opts.ContextFile)})
	}
	sortScored(out)
	return capScored(out, opts.Limit), nil, nil
}

func (e *Engine) searchText(ctx context.Context, db *store.DB, opts SearchOptions) ([]LineHit, error) {
	if opts.Method == MethodRegex {
		return e.searchTextRegex(ctx, db, opts)
	}
	fts, err := db.SearchFilesContent(ctx, opts.Query, opts.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]LineHit, 0, len(fts))
	for _, h := range fts {
		if opts.FilePattern != "" && !globMatch(opts.FilePattern, h.Path) {
			continue
		}
		out = append(out, LineHit{FilePath: h.Path, Snippet: h.Snippet, Score: -h.Rank})
	}
	return out, nil
}

func (e *Engine) searchTextRegex(ctx context.Context, db *store.DB, opts SearchOptions) ([]LineHit, error) {
	re, err := e.compileRegex(opts.Query)
	if err != nil {
		return nil, err
	}
	paths, err := db.ListFilePaths(ctx)
	if err != nil {
		return nil, err
	}
	var out []LineHit
	deadline := time.Now().Add(5 * time.Second)
	i := 0
	for p := range paths {
		i++
		if i%64 == 0 && time.Now().After(deadline) {
			break
		}
		if opts.FilePattern != "" && !globMatch(opts.FilePattern, p) {
			continue
		}
		f, ok, err := db.GetFile(ctx, p)
		if err != nil || !ok {
			continue
		}
		if re.MatchString(f.Content) {
			out = append(out, LineHit{FilePath: p, Score: 1.0})
			if len(out) >= opts.Limit {
				break
			}
		}
	}
	return out, nil
}

func (e *Engine) rankFTS(fts []store.FTSSymbolHit, opts SearchOptions) []Scored {
	var out []Scored
	for _, hit := range fts {
		if !matchesFilters(hit.Symbol, opts) {
			continue
		}
		s := score(hit.Rank, hit.Symbol, opts.ContextFile) * exactnessBonus(hit.Symbol.Name, opts.Query)
		out = append(out, Scored{Symbol: hit.Symbol, Score: s})
	}
	sortScored(out)
	return capScored(out, opts.Limit)
}

func matchesFilters(s symbols.Symbol, opts SearchOptions) bool {
	if opts.Language != "" && s.Language != opts.Language {
		return false
	}
	if opts.FilePattern != "" && !globMatch(opts.FilePattern, s.FilePath) {
		return false
	}
	return true
}

func capScored(hits []Scored, limit int) []Scored {
	if len(hits) > limit {
		return hits[:limit]
	}
	return hits
}
