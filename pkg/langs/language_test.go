package langs

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		path    string
		lang    Language
		variant Variant
	}{
		{"main.go", Go, VariantNone},
		{"index.ts", TypeScript, VariantNone},
		{"component.tsx", TypeScript, VariantTSX},
		{"app.js", JavaScript, VariantNone},
		{"lib.rs", Rust, VariantNone},
		{"script.py", Python, VariantNone},
		{"Main.java", Java, VariantNone},
		{"util.c", C, VariantNone},
		{"util.hpp", Cpp, VariantNone},
		{"model.rb", Ruby, VariantNone},
		{"setup.sh", Bash, VariantNone},
		{"index.PHP", PHP, VariantNone},
		{"README.unknownext", Unknown, VariantNone},
		{"noext", Unknown, VariantNone},
	}

	for _, c := range cases {
		lang, variant := Detect(c.path)
		if lang != c.lang || variant != c.variant {
			t.Errorf("Detect(%q) = (%q, %q), want (%q, %q)", c.path, lang, variant, c.lang, c.variant)
		}
	}
}

func TestWired(t *testing.T) {
	for _, lang := range WiredLanguages() {
		if !lang.Wired() {
			t.Errorf("%q is in WiredLanguages() but Wired() returned false", lang)
		}
	}

	unwired := []Language{PHP, Swift, Kotlin, Lua, SQL, HTML, CSS, Vue, Razor, Zig, Dart, GDScript, PowerShell, Regex, Unknown}
	for _, lang := range unwired {
		if lang.Wired() {
			t.Errorf("%q should not be wired", lang)
		}
	}
}

func TestWiredLanguagesCount(t *testing.T) {
	if got := len(WiredLanguages()); got != 10 {
		t.Errorf("expected 10 wired languages, got %d", got)
	}
}

func TestParseString(t *testing.T) {
	cases := map[string]Language{
		"ts":         TypeScript,
		"TS":         TypeScript,
		"js":         JavaScript,
		"rs":         Rust,
		"py":         Python,
		"rb":         Ruby,
		"c++":        Cpp,
		"c#":         CSharp,
		"powershell": PowerShell,
		"ps1":        PowerShell,
		"python":     Python,
		" go ":       Go,
	}

	for input, want := range cases {
		if got := ParseString(input); got != want {
			t.Errorf("ParseString(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGrammarPointerWiredLanguages(t *testing.T) {
	for _, lang := range WiredLanguages() {
		ptr, err := GrammarPointer(lang, VariantNone)
		if err != nil {
			t.Errorf("GrammarPointer(%q) returned error: %v", lang, err)
		}
		if ptr == nil {
			t.Errorf("GrammarPointer(%q) returned nil pointer", lang)
		}
	}
}

func TestGrammarPointerTSXVariant(t *testing.T) {
	plain, err := GrammarPointer(TypeScript, VariantNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tsx, err := GrammarPointer(TypeScript, VariantTSX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain == tsx {
		t.Error("expected distinct grammar pointers for TypeScript and TSX variants")
	}
}

func TestGrammarPointerUnwiredLanguage(t *testing.T) {
	if _, err := GrammarPointer(PHP, VariantNone); err == nil {
		t.Error("expected error for unwired language PHP")
	}
}

func TestGrammarPointerUnknown(t *testing.T) {
	if _, err := GrammarPointer(Unknown, VariantNone); err == nil {
		t.Error("expected error for unknown language")
	}
}
