package router

import (
	"net/http"
)

// Router registers handler chains under "METHOD /path" patterns and
// dispatches requests. Implementations adapt a concrete mux; handlers read
// path parameters through Param so they stay mux-agnostic.
//
// Pattern syntax follows net/http's ServeMux: "{name}" for a single segment,
// "{name...}" for a trailing wildcard. Adapters translate to their mux's
// native syntax.
type Router interface {
	http.Handler

	Handle(pattern string, handler http.Handler)
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))

	// Param returns the named path parameter of the request, empty when absent.
	Param(req *http.Request, key string) string
}

// Register adds every chain in chains to the router.
func Register(r Router, chains Chains) {
	for pattern, chain := range chains {
		r.Handle(pattern, chain.Handler())
	}
}
