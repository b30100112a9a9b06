package internal

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MatchStatus is the outcome of a route lookup.
type MatchStatus int

const (
	MatchNotFound MatchStatus = iota
	MatchFound
	MatchMethodNotAllowed
)

// MatchResult describes a route lookup.
type MatchResult struct {
	Route   *Route
	Params  []string // Values in pattern order
	Allowed []string // Methods registered for the path when Status is MatchMethodNotAllowed
	Status  MatchStatus
}

// Param returns the named parameter of a found route, or "".
func (m MatchResult) Param(name string) string {
	if m.Route == nil {
		return ""
	}
	for i, n := range m.Route.names {
		if n == name {
			return m.Params[i]
		}
	}
	return ""
}

// pattern is a compiled path template.
type pattern struct {
	segments []patternSegment
}

type patternSegment struct {
	literal string
	param   bool
}

// compilePattern splits raw on "/" into literal and {name} segments.
func compilePattern(raw string) (pattern, []string, error) {
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, nil, fmt.Errorf("%w: pattern %q must start with /", ErrMalformedRouteSource, raw)
	}

	parts := splitSegments(raw)
	p := pattern{segments: make([]patternSegment, 0, len(parts))}
	var names []string
	seen := make(map[string]struct{})

	for _, part := range parts {
		if !strings.ContainsAny(part, "{}") {
			p.segments = append(p.segments, patternSegment{literal: part})
			continue
		}

		if len(part) < 3 || part[0] != '{' || part[len(part)-1] != '}' {
			return pattern{}, nil, fmt.Errorf("%w: pattern %q: placeholder must span a whole segment", ErrMalformedRouteSource, raw)
		}
		name := part[1 : len(part)-1]
		if strings.ContainsAny(name, "{}") {
			return pattern{}, nil, fmt.Errorf("%w: pattern %q: unbalanced braces", ErrMalformedRouteSource, raw)
		}
		if _, dup := seen[name]; dup {
			return pattern{}, nil, fmt.Errorf("%w: pattern %q: duplicate parameter %q", ErrMalformedRouteSource, raw, name)
		}
		seen[name] = struct{}{}

		names = append(names, name)
		p.segments = append(p.segments, patternSegment{param: true})
	}

	return p, names, nil
}

// match binds segs against the pattern. Parameters never match an empty
// segment.
func (p pattern) match(segs []string) ([]string, bool) {
	if len(segs) != len(p.segments) {
		return nil, false
	}

	var params []string
	for i, seg := range p.segments {
		switch {
		case seg.param:
			if segs[i] == "" {
				return nil, false
			}
			params = append(params, segs[i])
		case seg.literal != segs[i]:
			return nil, false
		}
	}
	return params, true
}

// splitSegments splits an absolute path into its segments. The root path
// has none; a trailing slash yields a trailing empty segment.
func splitSegments(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// splitRequestPath normalizes an escaped request path and unescapes each
// segment, so an encoded slash stays inside its segment.
func splitRequestPath(p string) []string {
	segs := splitSegments(NormalizePath(p))
	for i, s := range segs {
		if !strings.Contains(s, "%") {
			continue
		}
		if u, err := url.PathUnescape(s); err == nil {
			segs[i] = u
		}
	}
	return segs
}

// Match finds the route for method and path. path is the escaped request
// path; a query string or fragment is ignored. Routes are tried in
// registration order and the first match wins. HEAD falls back to GET.
func (t *RouteTable) Match(method, path string) MatchResult {
	method = strings.ToUpper(method)
	segs := splitRequestPath(path)

	var (
		allowed     []string
		headRoute   *Route
		headParams  []string
		methodsSeen = make(map[string]struct{})
	)

	for _, rt := range t.routes {
		params, ok := rt.pattern.match(segs)
		if !ok {
			continue
		}
		if rt.Method == method {
			return MatchResult{Status: MatchFound, Route: rt, Params: params}
		}
		if method == http.MethodHead && rt.Method == http.MethodGet && headRoute == nil {
			headRoute, headParams = rt, params
		}
		if _, dup := methodsSeen[rt.Method]; !dup {
			methodsSeen[rt.Method] = struct{}{}
			allowed = append(allowed, rt.Method)
		}
	}

	if headRoute != nil {
		return MatchResult{Status: MatchFound, Route: headRoute, Params: headParams}
	}
	if len(allowed) > 0 {
		return MatchResult{Status: MatchMethodNotAllowed, Allowed: allowed}
	}
	return MatchResult{Status: MatchNotFound}
}
