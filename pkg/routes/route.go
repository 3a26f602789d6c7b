// Package routes declares domain endpoints as data so each handler can
// publish its routes and the API module registers them in one place.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Pattern is
// relative to the owning Group's prefix and may be empty.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group is the set of routes a domain handler serves under Prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Patterns returns the ServeMux patterns the group registers.
func (g Group) Patterns() []string {
	patterns := make([]string, len(g.Routes))
	for i, r := range g.Routes {
		patterns[i] = r.Method + " " + g.Prefix + r.Pattern
	}
	return patterns
}

// Register adds every route of groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		for i, pattern := range g.Patterns() {
			mux.HandleFunc(pattern, g.Routes[i].Handler)
		}
	}
}
