package pathutil

import (
	"path/filepath"
	"testing"
)

func TestToRelativeUnixRoundTrip(t *testing.T) {
	root := filepath.FromSlash("/workspace/project")
	abs := filepath.Join(root, "src", "lib", "a.go")

	rel, err := ToRelativeUnix(abs, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel != "src/lib/a.go" {
		t.Fatalf("expected src/lib/a.go, got %q", rel)
	}

	back := JoinUnix(root, rel)
	if back != abs {
		t.Fatalf("expected round-trip %q, got %q", abs, back)
	}
}

func TestMatcherBasicExclude(t *testing.T) {
	m := NewMatcher([]string{"node_modules/**", "*.log"})

	if !m.Match("node_modules/react/index.js", false) {
		t.Fatal("expected node_modules path to be ignored")
	}
	if !m.Match("debug.log", false) {
		t.Fatal("expected *.log to be ignored")
	}
	if m.Match("src/main.go", false) {
		t.Fatal("expected src/main.go to not be ignored")
	}
}

func TestMatcherNegation(t *testing.T) {
	m := NewMatcher([]string{"*.log", "!keep.log"})

	if !m.Match("debug.log", false) {
		t.Fatal("expected debug.log to be ignored")
	}
	if m.Match("keep.log", false) {
		t.Fatal("expected keep.log to be re-included by negation")
	}
}

func TestIsIgnoredDir(t *testing.T) {
	if !IsIgnoredDir("node_modules") {
		t.Fatal("expected node_modules to be a default-ignored dir")
	}
	if IsIgnoredDir("src") {
		t.Fatal("expected src to not be ignored")
	}
}
