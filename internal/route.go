package internal

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// RouteDef is a declarative route tuple.
//
// Handler is a HandlerFunc, a func(*Request) (*Response, error), or a
// "Controller.action" reference resolved against registered controllers.
// Guard is anything ParseGuard accepts.
type RouteDef struct {
	Handler any
	Guard   any
	Method  string
	Pattern string
	Source  string // Where the tuple came from, for error messages
}

// Route is a registered, immutable route.
type Route struct {
	Handler    HandlerFunc
	Guard      GuardSpec
	Method     string
	Pattern    string
	HandlerRef string
	names      []string
	pattern    pattern
}

// ParamNames returns the pattern's parameter names in declaration order.
func (r *Route) ParamNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// RouteTable is the ordered set of routes. It is read-only after
// construction and safe for concurrent use.
type RouteTable struct {
	routes []*Route
}

// NewRouteTable parses defs into a route table. Every guard is parsed here,
// once. Any malformed tuple fails the whole table with an error wrapping
// ErrMalformedRouteSource.
func NewRouteTable(defs []RouteDef, resolver HandlerResolver, guards map[string]Guard) (*RouteTable, error) {
	t := &RouteTable{routes: make([]*Route, 0, len(defs))}

	for i, def := range defs {
		rt, err := newRoute(def, resolver, guards)
		if err != nil {
			if !errors.Is(err, ErrMalformedRouteSource) {
				err = fmt.Errorf("%w: %w", ErrMalformedRouteSource, err)
			}
			where := fmt.Sprintf("route #%d (%s %s)", i, def.Method, def.Pattern)
			if def.Source != "" {
				where += " in " + def.Source
			}
			return nil, fmt.Errorf("%s: %w", where, err)
		}
		t.routes = append(t.routes, rt)
	}

	return t, nil
}

func newRoute(def RouteDef, resolver HandlerResolver, guards map[string]Guard) (*Route, error) {
	method := strings.ToUpper(strings.TrimSpace(def.Method))
	if method == "" || strings.ContainsAny(method, " \t/") {
		return nil, fmt.Errorf("%w: invalid method %q", ErrMalformedRouteSource, def.Method)
	}

	p, names, err := compilePattern(def.Pattern)
	if err != nil {
		return nil, err
	}

	h, ref, err := resolveHandler(def.Handler, resolver)
	if err != nil {
		return nil, err
	}

	guard, err := ParseGuard(def.Guard, guards)
	if err != nil {
		return nil, err
	}

	return &Route{
		Handler:    h,
		Guard:      guard,
		Method:     method,
		Pattern:    def.Pattern,
		HandlerRef: ref,
		names:      names,
		pattern:    p,
	}, nil
}

func resolveHandler(v any, resolver HandlerResolver) (HandlerFunc, string, error) {
	switch h := v.(type) {
	case nil:
		return nil, "", fmt.Errorf("%w: missing handler", ErrMalformedRouteSource)
	case HandlerFunc:
		if h == nil {
			return nil, "", fmt.Errorf("%w: nil handler", ErrMalformedRouteSource)
		}
		return h, funcName(h), nil
	case func(*Request, ...string) (*Response, error):
		return h, funcName(h), nil
	case func(*Request) (*Response, error):
		return func(r *Request, _ ...string) (*Response, error) { return h(r) }, funcName(h), nil
	case string:
		if resolver == nil {
			return nil, "", fmt.Errorf("%w: handler %q needs a controller registry", ErrMalformedRouteSource, h)
		}
		fn, err := resolver.Resolve(h)
		if err != nil {
			return nil, "", err
		}
		return fn, h, nil
	}
	return nil, "", fmt.Errorf("%w: unsupported handler type %T", ErrMalformedRouteSource, v)
}

func funcName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "func"
}

// Routes returns the registered routes in order.
func (t *RouteTable) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *RouteTable) Len() int {
	return len(t.routes)
}
