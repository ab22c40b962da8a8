package backup

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover finds archive files under root matching pattern, a doublestar
// glob (supporting recursive "**" segments) distinct from the fnmatch-style
// single-segment globs the scanner uses for include/exclude filters. It is
// meant for operator tooling that needs to locate archives across a
// directory tree — e.g. "nightly/**/*.tar" — rather than for anything in
// the build/restore/trim path, which always operates on one named archive.
func Discover(root, pattern string) ([]string, error) {
	full := filepath.ToSlash(filepath.Join(root, pattern))
	matches, err := doublestar.FilepathGlob(full)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
