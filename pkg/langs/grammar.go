package langs

import (
	"fmt"
	"unsafe"

	tsbash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
	tsc "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tscpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tsgo "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tsjavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tsruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tsrust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// GrammarPointer returns the unsafe.Pointer to the tree-sitter language
// grammar for lang/variant, for languages with a wired grammar (Wired() ==
// true).
func GrammarPointer(lang Language, variant Variant) (unsafe.Pointer, error) {
	switch lang {
	case TypeScript:
		if variant == VariantTSX {
			return tstypescript.LanguageTSX(), nil
		}
		return tstypescript.LanguageTypescript(), nil
	case JavaScript:
		return tsjavascript.Language(), nil
	case Rust:
		return tsrust.Language(), nil
	case Python:
		return tspython.Language(), nil
	case Go:
		return tsgo.Language(), nil
	case Java:
		return tsjava.Language(), nil
	case C:
		return tsc.Language(), nil
	case Cpp:
		return tscpp.Language(), nil
	case Ruby:
		return tsruby.Language(), nil
	case Bash:
		return tsbash.Language(), nil
	default:
		return nil, fmt.Errorf("langs: no wired grammar for %q", lang)
	}
}
