package routes

import "net/http"

// Group collects routes and child groups under a shared path prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Patterns returns the fully qualified patterns of every route in the group
// and its children, in registration order.
func (g Group) Patterns() []string {
	var patterns []string
	g.walk("", func(pattern string, _ http.HandlerFunc) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

func (g Group) walk(parent string, fn func(pattern string, h http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.Method+" "+prefix+r.Pattern, r.Handler)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// Register adds all routes from the given groups to the mux and returns the
// number of patterns registered. ServeMux panics on conflicting patterns.
func Register(mux *http.ServeMux, groups ...Group) int {
	n := 0
	for _, g := range groups {
		g.walk("", func(pattern string, h http.HandlerFunc) {
			mux.HandleFunc(pattern, h)
			n++
		})
	}
	return n
}
