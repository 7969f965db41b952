package servemux

import (
	"net/http"

	"github.com/caasmo/credkeeper/router"
)

// Router implements router.Router using net/http ServeMux
type Router struct {
	*http.ServeMux
}

func (s *Router) Handle(pattern string, handler http.Handler) {
	s.ServeMux.Handle(pattern, handler)
}

func (s *Router) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.ServeMux.HandleFunc(pattern, handler)
}

func (s *Router) Param(req *http.Request, key string) string {
	// Uses Go 1.22's PathValue which handles named parameters
	return req.PathValue(key)
}

func New() router.Router {
	return &Router{ServeMux: http.NewServeMux()}
}
