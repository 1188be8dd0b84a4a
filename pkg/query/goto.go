package query

import (
	"context"

	"github.com/kraklabs/julie/pkg/store"
	"github.com/kraklabs/julie/pkg/symbols"
)

// GotoOptions carries fast_goto's parameters .
type GotoOptions struct {
	Symbol      string
	Kind        symbols.Kind // "" = any
	FilePattern string
	ContextFile string
	Limit       int
}

// GotoDefinition resolves a name to its ranked definitions: query symbols by
// name, filter optionally by kind and file_pattern (glob), sort by
// (priority, in-context, …), and return the top N definitions with code
// context.
func GotoDefinition(ctx context.Context, db *store.DB, opts GotoOptions) ([]Scored, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	candidates, err := db.GetSymbolsByName(ctx, opts.Symbol)
	if err != nil {
		return nil, err
	}

	var out []Scored
	for _, s := range candidates {
		if opts.Kind != "" && s.Kind != opts.Kind {
			continue
		}
		if opts.FilePattern != "" && !globMatch(opts.FilePattern, s.FilePath) {
			continue
		}
		out = append(out, Scored{
			Symbol: s,
			Score:  kindWeight(s.Kind) * visibilityWeight(s.Visibility) * contextBonus(s.FilePath, opts.ContextFile),
		})
	}
	sortScored(out)
	return capScored(out, opts.Limit), nil
}
