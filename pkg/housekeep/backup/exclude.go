package backup

import (
	"strings"

	"github.com/ryanuber/go-glob"
)

// Excluder matches path segments against exclude patterns. A segment is
// excluded when it contains a pattern as a substring or matches it as a glob.
type Excluder struct {
	patterns []string
}

// NewExcluder drops blank patterns.
func NewExcluder(patterns []string) Excluder {
	var kept []string
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return Excluder{patterns: kept}
}

// MatchSegment reports whether a single path segment is excluded.
func (e Excluder) MatchSegment(segment string) bool {
	if segment == "" {
		return false
	}
	for _, p := range e.patterns {
		if strings.Contains(segment, p) || glob.Glob(p, segment) {
			return true
		}
	}
	return false
}
