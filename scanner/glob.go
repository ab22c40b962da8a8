package scanner

import (
	"regexp"
	"strings"
	"sync"
)

// Match reports whether name matches a shell-style glob pattern under
// fnmatch semantics: '*' and '?' are ordinary wildcards that treat '/'
// as just another character, never a path-segment boundary. This is
// deliberately different from path/filepath.Match and from doublestar's
// '**' escapes, both of which stop '*' at a separator — neither can
// express the traversal rules the scanner relies on, so the translation
// to regexp here is the one piece of this package grounded on the
// standard library rather than a third-party matcher.
func Match(pattern, name string) bool {
	return compile(pattern).MatchString(name)
}

var patternCache sync.Map // string -> *regexp.Regexp

func compile(pattern string) *regexp.Regexp {
	if v, ok := patternCache.Load(pattern); ok {
		return v.(*regexp.Regexp)
	}
	re := regexp.MustCompile(translate(pattern))
	patternCache.Store(pattern, re)
	return re
}

// translate converts an fnmatch-style pattern into an anchored regexp,
// following the classic fnmatch.translate algorithm: '*' becomes '.*',
// '?' becomes '.', and '[...]' character classes pass through mostly
// unchanged (with a leading '!' flipped to '^' for negation).
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString("(?s)^")

	n := len(pattern)
	for i := 0; i < n; {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
			i++
		case '?':
			b.WriteString(".")
			i++
		case '[':
			j := i + 1
			if j < n && (pattern[j] == '!' || pattern[j] == '^') {
				j++
			}
			if j < n && pattern[j] == ']' {
				j++
			}
			for j < n && pattern[j] != ']' {
				j++
			}
			if j >= n {
				// Unterminated class: treat '[' literally.
				b.WriteString("\\[")
				i++
				continue
			}
			class := pattern[i+1 : j]
			class = strings.ReplaceAll(class, "\\", "\\\\")
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[")
			b.WriteString(class)
			b.WriteString("]")
			i = j + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	b.WriteString("$")
	return b.String()
}

// anyMatch reports whether any pattern in patterns matches name.
func anyMatch(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}
