package middleware

import "strings"

// PathMatcher decides whether a request is reachable without a credential.
// A pattern is an optional method prefix followed by a path, e.g.
// "GET /api/users/*" or "/health". Paths are matched segment by segment:
// "*" matches exactly one segment, and a trailing "/**" matches any
// suffix. A pattern without a method prefix matches every method.
type PathMatcher struct {
	patterns []pathPattern
}

type pathPattern struct {
	method   string
	segments []string
}

// NewPathMatcher compiles the pattern list. Trailing slashes on patterns
// and request paths are ignored.
func NewPathMatcher(patterns []string) *PathMatcher {
	compiled := make([]pathPattern, 0, len(patterns))
	for _, p := range patterns {
		var method string
		if before, after, found := strings.Cut(p, " "); found {
			method = strings.ToUpper(strings.TrimSpace(before))
			p = strings.TrimSpace(after)
		}
		compiled = append(compiled, pathPattern{
			method:   method,
			segments: splitPath(p),
		})
	}
	return &PathMatcher{patterns: compiled}
}

// Matches reports whether any configured pattern matches the request.
func (m *PathMatcher) Matches(method, path string) bool {
	segments := splitPath(path)
	for _, pattern := range m.patterns {
		if pattern.method != "" && pattern.method != method {
			continue
		}
		if matchSegments(pattern.segments, segments) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segments []string) bool {
	for i, p := range pattern {
		if p == "**" {
			// Only valid as the last pattern segment; swallows the rest.
			return i == len(pattern)-1
		}
		if i >= len(segments) {
			return false
		}
		if p != "*" && p != segments[i] {
			return false
		}
	}
	return len(pattern) == len(segments)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
