// Symbol extraction: turns compiled symbol-query matches into the uniform
// symbols.Symbol model.
package extractor

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/kraklabs/julie/pkg/langs"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/symbols"
)

// kindByCategory maps a query capture category (the prefix before the dot,
// e.g. "function" in "@function.name") to the uniform symbols.Kind. Every
// per-language query file under pkg/parser/queries/symbols was written
// against this set of categories.
var kindByCategory = map[string]symbols.Kind{
	"function":    symbols.KindFunction,
	"method":      symbols.KindMethod,
	"class":       symbols.KindClass,
	"struct":      symbols.KindStruct,
	"interface":   symbols.KindInterface,
	"enum":        symbols.KindEnum,
	"enummember":  symbols.KindEnumMember,
	"field":       symbols.KindField,
	"property":    symbols.KindProperty,
	"variable":    symbols.KindVariable,
	"constant":    symbols.KindConstant,
	"constructor": symbols.KindConstructor,
	"destructor":  symbols.KindDestructor,
	"module":      symbols.KindModule,
	"namespace":   symbols.KindNamespace,
	"type":        symbols.KindType,
	"import":      symbols.KindImport,
}

// modifierKeywords is scanned for across a declaration's leading text (the
// span before its name) to populate Symbol.Metadata. It is a heuristic,
// not a grammar-aware parse: the declarations captured by the per-language
// symbol queries put their modifiers in wildly different node shapes, and a
// substring scan of the declaration's own source text is the one thing that
// generalizes across all ten grammars without hand-walking each one's field
// names.
var modifierKeywords = []string{
	"public", "private", "protected",
	"static", "async", "abstract", "final", "readonly", "const",
	"pub", "pub(crate)", "unsafe", "mut",
	"virtual", "override",
}

func (e *Extractor) extractSymbols(workspaceID string, matches []queries.QueryMatch, sourceCode []byte, filePath string, lang langs.Language) []symbols.Symbol {
	syms := make([]symbols.Symbol, 0, len(matches))

	for _, match := range matches {
		sym := e.buildSymbol(workspaceID, match, sourceCode, filePath, lang)
		if sym != nil {
			syms = append(syms, *sym)
		}
	}

	// Resolve ParentID as a second pass: a method's enclosing class must
	// already exist in the slice before it can be looked up by span.
	for i := range syms {
		if parent := enclosingSymbol(syms[i].Location.StartByte, syms, syms[i].ID); parent != nil {
			syms[i].ParentID = parent.ID
		}
	}

	return syms
}

// buildSymbol converts one query match into a Symbol. Matches with no name
// capture (malformed queries, or error-node recovery) are skipped rather
// than guessed at.
func (e *Extractor) buildSymbol(workspaceID string, match queries.QueryMatch, sourceCode []byte, filePath string, lang langs.Language) *symbols.Symbol {
	nameCapture := findCapture(match.Captures, "name")
	if nameCapture == nil {
		return nil
	}

	kind, ok := kindByCategory[nameCapture.Category]
	if !ok {
		return nil
	}

	isDefinition := true
	defCapture := findCapture(match.Captures, "definition")
	if defCapture == nil {
		if proto := findCapture(match.Captures, "prototype"); proto != nil {
			defCapture = proto
			isDefinition = false
		} else {
			defCapture = nameCapture
		}
	}

	name := nameCapture.Text
	if name == "" {
		name = "anonymous"
	}

	loc := toSymbolLocation(defCapture.Location, filePath)

	meta := detectModifiers(defCapture.Node, nameCapture.Node, sourceCode)
	if !isDefinition {
		if meta == nil {
			meta = make(map[string]string)
		}
		meta["isDefinition"] = "false"
	}

	sym := &symbols.Symbol{
		Name:       name,
		Kind:       kind,
		Language:   string(lang),
		FilePath:   filePath,
		Location:   loc,
		Signature:  declarationSignature(defCapture.Node, sourceCode),
		DocComment: leadingDocComment(defCapture.Node, sourceCode),
		Visibility: detectVisibility(defCapture.Node, sourceCode, lang, name),
		Metadata:   meta,
	}
	sym.ID = symbols.GenerateID(workspaceID, filePath, name, kind, loc.StartLine, loc.StartColumn)

	return sym
}

// findCapture returns the first capture with the given field, e.g. "name"
// or "definition".
func findCapture(captures []queries.QueryCapture, field string) *queries.QueryCapture {
	for i := range captures {
		if captures[i].Field == field {
			return &captures[i]
		}
	}
	return nil
}

// toSymbolLocation converts a query Location (1-based line, 1-based column)
// to the uniform symbols.Location (1-based line, 0-based column).
func toSymbolLocation(loc queries.Location, filePath string) symbols.Location {
	startCol := loc.StartColumn
	if startCol > 0 {
		startCol--
	}
	endCol := loc.EndColumn
	if endCol > 0 {
		endCol--
	}
	return symbols.Location{
		FilePath:    filePath,
		StartLine:   loc.StartLine,
		StartColumn: startCol,
		EndLine:     loc.EndLine,
		EndColumn:   endCol,
		StartByte:   loc.StartByte,
		EndByte:     loc.EndByte,
	}
}

// declarationSignature returns the declaration's own text up to its first
// line break, a cheap approximation of a signature that works whether the
// node is a one-line field or a multi-line function body.
func declarationSignature(node *ts.Node, sourceCode []byte) string {
	if node == nil {
		return ""
	}
	text := node.Utf8Text(sourceCode)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// leadingDocComment walks backward over contiguous comment siblings
// immediately preceding node and returns their concatenated, stripped text.
// Stops at the first non-comment sibling.
func leadingDocComment(node *ts.Node, sourceCode []byte) string {
	if node == nil {
		return ""
	}

	var lines []string
	prev := node.PrevSibling()
	for prev != nil && isCommentNode(prev.GrammarName()) {
		lines = append([]string{stripCommentMarkers(prev.Utf8Text(sourceCode))}, lines...)
		prev = prev.PrevSibling()
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isCommentNode(grammarName string) bool {
	switch grammarName {
	case "comment", "line_comment", "block_comment":
		return true
	default:
		return false
	}
}

func stripCommentMarkers(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "///")
	text = strings.TrimPrefix(text, "//!")
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	text = strings.TrimPrefix(strings.TrimSpace(text), "*")
	return strings.TrimSpace(text)
}

// detectVisibility applies each language's own convention for public/private.
func detectVisibility(node *ts.Node, sourceCode []byte, lang langs.Language, name string) symbols.Visibility {
	switch lang {
	case langs.Go:
		if len(name) > 0 && strings.ToUpper(name[:1]) == name[:1] {
			return symbols.VisibilityPublic
		}
		return symbols.VisibilityPrivate
	case langs.Python, langs.Ruby:
		if strings.HasPrefix(name, "_") {
			return symbols.VisibilityPrivate
		}
		return symbols.VisibilityPublic
	}

	if node == nil {
		return ""
	}
	prefix := declarationPrefix(node, sourceCode)
	switch {
	case strings.Contains(prefix, "private"):
		return symbols.VisibilityPrivate
	case strings.Contains(prefix, "protected"):
		return symbols.VisibilityProtected
	case strings.Contains(prefix, "public"), strings.Contains(prefix, "pub "), strings.Contains(prefix, "pub("):
		return symbols.VisibilityPublic
	}
	return ""
}

// detectModifiers scans the declaration's leading text (before its name) for
// known modifier keywords and records whichever are present.
func detectModifiers(declNode, nameNode *ts.Node, sourceCode []byte) map[string]string {
	if declNode == nil {
		return nil
	}
	prefix := declarationPrefix(declNode, sourceCode)

	meta := make(map[string]string)
	for _, kw := range modifierKeywords {
		if strings.Contains(prefix, kw) {
			meta[kw] = "true"
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// declarationPrefix returns the lowercased text of node from its start up to
// (but not including) its name child, or its full text if no name field
// exists. This is where modifier keywords (public, static, pub, ...) live
// for most grammars.
func declarationPrefix(node *ts.Node, sourceCode []byte) string {
	full := node.Utf8Text(sourceCode)
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		if idx := strings.IndexByte(full, '\n'); idx >= 0 {
			return strings.ToLower(full[:idx])
		}
		return strings.ToLower(full)
	}
	offset := int(nameNode.StartByte()) - int(node.StartByte())
	if offset < 0 || offset > len(full) {
		offset = len(full)
	}
	return strings.ToLower(full[:offset])
}

// enclosingSymbol returns the smallest-span symbol in the same file whose
// half-open byte range [StartByte, EndByte) contains pos, excluding the symbol identified by
// excludeID. Used both to resolve a symbol's ParentID (e.g. a method inside
// a class) and an identifier's containing symbol.
func enclosingSymbol(pos uint32, syms []symbols.Symbol, excludeID string) *symbols.Symbol {
	var best *symbols.Symbol
	var bestSpan uint32

	for i := range syms {
		s := &syms[i]
		if s.ID == excludeID {
			continue
		}
		if pos < s.Location.StartByte || pos >= s.Location.EndByte {
			continue
		}
		span := s.Location.EndByte - s.Location.StartByte
		if best == nil || span < bestSpan {
			best = s
			bestSpan = span
		}
	}

	return best
}
