package httprouter

import (
	"net/http"
	"strings"

	"github.com/caasmo/credkeeper/router"
	jshttprouter "github.com/julienschmidt/httprouter"
)

// Router implements router.Router on top of julienschmidt/httprouter.
type Router struct {
	rt *jshttprouter.Router
}

func New() router.Router {
	rt := jshttprouter.New()
	rt.SaveMatchedRoutePath = false
	return &Router{rt: rt}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.rt.ServeHTTP(w, req)
}

func (r *Router) Handle(pattern string, handler http.Handler) {
	method, path := splitPattern(pattern)
	r.rt.Handler(method, translatePath(path), handler)
}

func (r *Router) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	r.Handle(pattern, http.HandlerFunc(handler))
}

func (r *Router) Param(req *http.Request, key string) string {
	params := jshttprouter.ParamsFromContext(req.Context())
	value := params.ByName(key)
	// httprouter keeps the leading slash on catch-all values
	return strings.TrimPrefix(value, "/")
}

// splitPattern separates "METHOD /path" into its parts. A pattern without a
// method applies to GET.
func splitPattern(pattern string) (method, path string) {
	method, path, found := strings.Cut(pattern, " ")
	if !found {
		return http.MethodGet, pattern
	}
	return method, path
}

// translatePath converts ServeMux-style parameters to httprouter syntax:
// "{name}" becomes ":name" and a trailing "{name...}" becomes "*name".
func translatePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := seg[1 : len(seg)-1]
		if trimmed, ok := strings.CutSuffix(name, "..."); ok {
			segments[i] = "*" + trimmed
		} else {
			segments[i] = ":" + name
		}
	}
	return strings.Join(segments, "/")
}
