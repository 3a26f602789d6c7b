// Package module mounts self-contained HTTP modules under single-segment
// prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/floracare/pkg/middleware"
)

// Module strips its prefix and serves the remaining path through its
// middleware stack. Middleware must be added before the first request.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module for a single-segment prefix such as "/api".
// It panics on an invalid prefix.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. The first registered runs outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Handler returns the router wrapped in the middleware stack.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Serve dispatches req with the module prefix removed from its path.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	rest, _ := strings.CutPrefix(req.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	r := new(http.Request)
	*r = *req
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = rest
	r.URL.RawPath = ""

	m.Handler().ServeHTTP(w, r)
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || prefix == "/":
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
