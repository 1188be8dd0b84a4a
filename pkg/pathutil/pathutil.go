// Package pathutil provides the single path-normalization and ignore-matching
// utility used everywhere Julie writes to or queries the symbol database, so
// no raw path-to-string conversion ever escapes the storage boundary.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ToRelativeUnix converts an absolute (or root-relative) path to a
// root-relative, forward-slash-separated path. For a path inside root the
// result never contains ".."; a path outside root yields a "../"-prefixed
// result. It always uses "/", regardless of host OS.
//
// Implemented via filepath.Rel + filepath.ToSlash, factored into its own
// utility so every path-bearing package normalizes the same way.
func ToRelativeUnix(path, root string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimPrefix(rel, "./")
	return rel, nil
}

// JoinUnix joins a root (native path) with a relative Unix-style path,
// producing a native path suitable for os/filepath calls.
func JoinUnix(root, relUnix string) string {
	parts := strings.Split(relUnix, "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// NormalizeSlashes replaces backslashes with forward slashes, for paths
// that arrive from a Windows-style watcher event or CLI argument.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// DefaultIgnoreDirs is the built-in directory blacklist.
var DefaultIgnoreDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".git":         true,
	"__pycache__":  true,
	"vendor":       true,
	"deps":         true,
	".next":        true,
	".venv":        true,
	"bin":          true,
	"obj":          true,
}

// Matcher compiles a set of gitignore-style glob patterns (with doublestar
// "**" semantics and "!" negation) and answers whether a relative Unix path
// is ignored.
//
// Matching is doublestar.Match over "**"-aware glob patterns; negation
// support implements full .gitignore semantics, including "!" un-ignore
// rules layered on top of an earlier broader ignore.
type Matcher struct {
	rules []rule
}

type rule struct {
	pattern string
	negate  bool
	dirOnly bool
}

// NewMatcher compiles pattern lines in .gitignore order: later patterns can
// override earlier ones, and a "!"-prefixed pattern re-includes a path an
// earlier pattern excluded.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		negate := false
		if strings.HasPrefix(p, "!") {
			negate = true
			p = p[1:]
		}
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")
		if !strings.Contains(p, "/") {
			p = "**/" + p
		}
		p = strings.TrimPrefix(p, "/")
		m.rules = append(m.rules, rule{pattern: p, negate: negate, dirOnly: dirOnly})
	}
	return m
}

// Match reports whether relUnix (a root-relative Unix-style path) is
// ignored. isDir indicates whether the path is a directory (dirOnly rules
// only apply to directories).
func (m *Matcher) Match(relUnix string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		matched, _ := doublestar.Match(r.pattern, relUnix)
		if !matched {
			// Also try matching as a prefix directory component for
			// patterns like "build" meant to exclude the whole subtree.
			matched, _ = doublestar.Match(r.pattern+"/**", relUnix)
		}
		if matched {
			ignored = !r.negate
		}
	}
	return ignored
}

// IsIgnoredDir reports whether a bare directory name is in the built-in
// blacklist (fast path, checked before the Matcher).
func IsIgnoredDir(name string) bool {
	return DefaultIgnoreDirs[name]
}
