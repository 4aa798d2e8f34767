// Package middleware provides the HTTP middleware applied to mounted modules.
package middleware

import (
	"net/http"
	"slices"
)

// Func wraps an http.Handler.
type Func func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
}

type stack []Func

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(fn Func) {
	*s = append(*s, fn)
}

// Apply wraps handler so the first middleware added is the outermost.
func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, fn := range slices.Backward(*s) {
		handler = fn(handler)
	}
	return handler
}
