// Identifier and relationship extraction: the second pass over a parsed
// file, run against the call-site/member-access query instead of the
// symbol query. This is what lets a later query answer "who calls X" or
// "where is Y referenced" without re-parsing.
package extractor

import (
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/symbols"
)

// identifierMatch is an intermediate, query-shaped representation of one
// @call.name or @member.name capture before it is turned into a stable
// symbols.Identifier (which requires a workspace id it doesn't have yet).
type identifierMatch struct {
	name string
	kind symbols.IdentifierKind
	loc  queries.Location
}

// collectIdentifierMatches filters raw call-query captures down to the name
// captures that denote an occurrence (skipping the enclosing *.site capture,
// which exists only to anchor the pattern).
func (e *Extractor) collectIdentifierMatches(matches []queries.QueryMatch) []identifierMatch {
	var out []identifierMatch

	for _, match := range matches {
		nameCapture := findCapture(match.Captures, "name")
		if nameCapture == nil || nameCapture.Text == "" {
			continue
		}

		var kind symbols.IdentifierKind
		switch nameCapture.Category {
		case "call":
			kind = symbols.IdentifierCall
		case "member":
			kind = symbols.IdentifierMemberAccess
		default:
			continue
		}

		out = append(out, identifierMatch{
			name: nameCapture.Text,
			kind: kind,
			loc:  nameCapture.Location,
		})
	}

	return out
}

// resolveIdentifiers turns raw identifier matches into stable Identifier
// records and, for call-kind occurrences, a "calls" Relationship from the
// enclosing symbol to the callee name. The callee is intentionally left
// unresolved (ToName, not ToSymbolID): resolving a name to a concrete
// symbol may require cross-file information the per-file extractor doesn't
// have, so that resolution happens at query time against the full index.
func (e *Extractor) resolveIdentifiers(workspaceID string, matches []identifierMatch, filePath string, syms []symbols.Symbol) ([]symbols.Identifier, []symbols.Relationship) {
	identifiers := make([]symbols.Identifier, 0, len(matches))
	var relationships []symbols.Relationship

	for _, m := range matches {
		line := m.loc.StartLine
		col := uint32(0)
		if m.loc.StartColumn > 0 {
			col = m.loc.StartColumn - 1
		}

		enclosing := enclosingSymbol(m.loc.StartByte, syms, "")

		ident := symbols.Identifier{
			ID:       symbols.GenerateIdentifierID(workspaceID, filePath, m.name, m.kind, line, col),
			Name:     m.name,
			Kind:     m.kind,
			FilePath: filePath,
			Line:     line,
			Column:   col,
		}
		if enclosing != nil {
			ident.ContainingSymbolID = enclosing.ID
		}
		identifiers = append(identifiers, ident)

		if m.kind == symbols.IdentifierCall && enclosing != nil {
			rel := symbols.Relationship{
				FromSymbolID: enclosing.ID,
				ToName:       m.name,
				Kind:         symbols.RelCalls,
				FilePath:     filePath,
				LineNumber:   line,
				Confidence:   0.7,
			}
			rel.ID = symbols.GenerateRelationshipID(workspaceID, rel.FromSymbolID, rel.ToName, rel.Kind, filePath, line)
			relationships = append(relationships, rel)
		}
	}

	return identifiers, relationships
}
