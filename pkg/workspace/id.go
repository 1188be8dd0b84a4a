// Package workspace is the multi-workspace manager and registry: directory
// layout under <root>/.julie/, a JSON registry document with atomic save
// semantics, and TTL/LRU/orphan lifecycle sweeps, synchronized with a plain
// sync.Mutex rather than an async runtime since this server has none of
// its own.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// GenerateID derives a workspace's directory id from its root path:
// sanitize(basename(normalize(path))) + "_" + sha256(normalize(path))[0:8].
func GenerateID(path string) string {
	normalized := normalize(path)
	sum := sha256.Sum256([]byte(normalized))
	hash8 := hex.EncodeToString(sum[:])[:8]
	name := sanitize(filepath.Base(normalized))
	return name + "_" + hash8
}

// normalize lowercases, converts backslashes to forward slashes, and trims
// a trailing slash — deliberately not calling filepath.Abs/EvalSymlinks so
// the id is stable even for a workspace path that doesn't exist yet on
// this machine (registry entries for reference workspaces can be created
// before their index finishes).
func normalize(path string) string {
	p := strings.ToLower(path)
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// invalidNameChars are replaced with "_" in sanitize:
// `/\:*?"<>| .`.
const invalidNameChars = `/\:*?"<>| .`

// sanitize makes name safe for use as a filesystem directory component,
// truncates to 50 bytes, and prefixes "ws_" if the result wouldn't start
// with an alphanumeric character (including the empty-input case).
func sanitize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	for _, r := range lower {
		if strings.ContainsRune(invalidNameChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 50 {
		s = s[:50]
	}
	if s == "" || !isAlphanumeric(rune(s[0])) {
		s = "ws_" + s
	}
	return s
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
