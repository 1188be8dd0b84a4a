package query

import "github.com/bmatcuk/doublestar/v4"

// globMatch reports whether relPath matches a fast_search/fast_goto
// file_pattern glob (the "filter optionally by ... file_pattern
// (glob)"). Malformed patterns are treated as non-matching rather than
// erroring a whole search.
func globMatch(pattern, relPath string) bool {
	ok, err := doublestar.Match(pattern, relPath)
	return err == nil && ok
}
