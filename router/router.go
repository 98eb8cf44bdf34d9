package router

import (
	"strings"

	"github.com/nczempin/httpd-go-uring/protocol"
)

// HandlerFunc turns a parsed request into a response
type HandlerFunc func(req *protocol.HttpRequest) *protocol.HttpResponse

// MatchKind says how a Matcher compares its pattern with a target
type MatchKind int

const (
	// Exact matches a target equal to the pattern
	Exact MatchKind = iota
	// Prefix matches a target starting with the pattern, literally
	Prefix
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Prefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Matcher is a single route pattern
type Matcher struct {
	Kind    MatchKind
	Pattern string
}

// Matches reports whether target satisfies the matcher
func (m Matcher) Matches(target string) bool {
	switch m.Kind {
	case Exact:
		return target == m.Pattern
	case Prefix:
		return strings.HasPrefix(target, m.Pattern)
	default:
		return false
	}
}

// Route binds a matcher to a handler
type Route struct {
	Matcher Matcher
	Name    string
	Handler HandlerFunc
}

// ExactRoute builds a route matching target == pattern
func ExactRoute(name, pattern string, h HandlerFunc) Route {
	return Route{Matcher: Matcher{Kind: Exact, Pattern: pattern}, Name: name, Handler: h}
}

// PrefixRoute builds a route matching targets starting with pattern
func PrefixRoute(name, pattern string, h HandlerFunc) Route {
	return Route{Matcher: Matcher{Kind: Prefix, Pattern: pattern}, Name: name, Handler: h}
}

// Router dispatches by walking its table in order; the first match wins.
// The table is fixed at construction and safe for concurrent use.
type Router struct {
	routes   []Route
	fallback Route
}

// New builds a router over routes, consulted in the given order.
// fallback handles every target no route matches.
func New(fallback HandlerFunc, routes ...Route) *Router {
	table := make([]Route, len(routes))
	copy(table, routes)
	return &Router{
		routes:   table,
		fallback: Route{Name: "not-found", Handler: fallback},
	}
}

// Match returns the first route whose matcher accepts target.
// The fallback route is returned with ok == false.
func (r *Router) Match(target string) (Route, bool) {
	for _, route := range r.routes {
		if route.Matcher.Matches(target) {
			return route, true
		}
	}
	return r.fallback, false
}

// Serve runs the handler of the route matching req.Target
func (r *Router) Serve(req *protocol.HttpRequest) *protocol.HttpResponse {
	route, _ := r.Match(req.Target)
	return route.Handler(req)
}

// Routes returns a copy of the routing table
func (r *Router) Routes() []Route {
	table := make([]Route, len(r.routes))
	copy(table, r.routes)
	return table
}
