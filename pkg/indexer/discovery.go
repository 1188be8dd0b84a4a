package indexer

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kraklabs/julie/pkg/langs"
	"github.com/kraklabs/julie/pkg/pathutil"
)

// julieIgnoreFile is the project-local ignore file, supplementing
// .gitignore ("`.julieignore` supported").
const julieIgnoreFile = ".julieignore"

// discoverFiles walks root honoring .gitignore/.julieignore rules, the
// built-in directory blacklist, a language allow-list, and a binary-content
// heuristic for extension-less files.
func discoverFiles(root string, opts ScanOptions) ([]string, error) {
	matcher := loadIgnoreMatcher(root, opts.IgnorePatterns)
	maxSize := opts.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = MaxFileSizeBytes
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort: skip unreadable entries
		}
		if path == root {
			return nil
		}

		relUnix, relErr := pathutil.ToRelativeUnix(path, root)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if pathutil.IsIgnoredDir(d.Name()) || matcher.Match(relUnix, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.Match(relUnix, false) {
			return nil
		}

		lang, _ := langs.Detect(path)
		if lang == langs.Unknown || !lang.Wired() {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil || info.Size() == 0 || info.Size() > maxSize {
			return nil
		}

		if looksBinary(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// loadIgnoreMatcher compiles .gitignore + .julieignore + extra patterns
// found at root into a single pathutil.Matcher.
func loadIgnoreMatcher(root string, extra []string) *pathutil.Matcher {
	var patterns []string
	patterns = append(patterns, extra...)
	patterns = append(patterns, readPatternFile(filepath.Join(root, ".gitignore"))...)
	patterns = append(patterns, readPatternFile(filepath.Join(root, julieIgnoreFile))...)
	return pathutil.NewMatcher(patterns)
}

func readPatternFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range splitLines(data) {
		lines = append(lines, line)
	}
	return lines
}

func splitLines(data []byte) []string {
	var lines []string
	for _, part := range bytes.Split(data, []byte("\n")) {
		lines = append(lines, string(bytes.TrimRight(part, "\r")))
	}
	return lines
}

// looksBinary applies a null-byte / printable-ratio heuristic to the
// first 8KiB of path.
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, _ := f.Read(buf)
	buf = buf[:n]
	if n == 0 {
		return false
	}

	if bytes.IndexByte(buf, 0) >= 0 {
		return true
	}

	printable := 0
	for _, b := range buf {
		if b == '\t' || b == '\n' || b == '\r' || (b >= 0x20 && b < 0x7f) || b >= 0x80 {
			printable++
		}
	}
	return float64(printable)/float64(n) < 0.85
}
