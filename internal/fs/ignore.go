package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the file in an import root listing extra ignore patterns.
const IgnoreFileName = ".folioignore"

// defaultIgnorePatterns are always applied regardless of config or .folioignore.
var defaultIgnorePatterns = []string{IgnoreFileName, ".*"}

// ignoreRule is one parsed line of an ignore list.
type ignoreRule struct {
	glob     string
	anchored bool // glob contains '/': matched against the relative path
	dirOnly  bool // trailing '/': matches directories, and so everything below them
	negate   bool // leading '!': re-includes what earlier rules ignored
}

// IgnoreMatcher decides which files under an import root are skipped.
//
// Rules are evaluated in order and the last matching rule wins, so a later
// "!keep.md" re-includes a file an earlier "*.md" ignored. A glob without
// '/' is tested against every path element; a glob with '/' is tested
// against leading runs of the relative path. A trailing '/' restricts the
// rule to directories.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher parses raw pattern lines.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var rules []ignoreRule
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		var r ignoreRule
		if rest, ok := strings.CutPrefix(raw, "!"); ok {
			r.negate = true
			raw = rest
		}
		if rest, ok := strings.CutSuffix(raw, "/"); ok {
			r.dirOnly = true
			raw = rest
		}
		raw = strings.TrimPrefix(raw, "/")
		if raw == "" {
			continue
		}
		r.glob = raw
		r.anchored = strings.Contains(raw, "/")
		rules = append(rules, r)
	}
	return &IgnoreMatcher{rules: rules}
}

// Match reports whether the file at relativePath should be ignored.
// relativePath uses filepath separators and is relative to the import root.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if len(m.rules) == 0 || relativePath == "" {
		return false
	}

	parts := strings.Split(filepath.ToSlash(relativePath), "/")
	ignored := false
	for _, r := range m.rules {
		if r.matches(parts) {
			ignored = !r.negate
		}
	}
	return ignored
}

// matches tests the rule against a file whose path elements are parts.
// Directory rules only consider the file's parent directories.
func (r ignoreRule) matches(parts []string) bool {
	last := len(parts)
	if r.dirOnly {
		last--
	}

	if r.anchored {
		for i := 1; i <= last; i++ {
			if globMatch(r.glob, strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}

	if !r.dirOnly {
		// Plain globs name the file itself or any directory above it.
		return slicesAny(parts, r.glob)
	}
	return slicesAny(parts[:last], r.glob)
}

func slicesAny(elems []string, glob string) bool {
	for _, e := range elems {
		if globMatch(glob, e) {
			return true
		}
	}
	return false
}

// globMatch treats malformed patterns as non-matching.
func globMatch(glob, name string) bool {
	ok, err := filepath.Match(glob, name)
	return err == nil && ok
}

// ParseIgnoreFile reads a .folioignore file and returns its raw lines.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
