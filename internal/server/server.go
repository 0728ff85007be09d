// package server hosts the local HTTP endpoint for the OAuth2
// authorization code flow
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Handler defines an HTTP handler that knows its own routes.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router is a thin mux that registers [Handler] implementations and
// logs each request.
type Router struct {
	mux    *http.ServeMux
	logger *log.Logger
}

// NewRouter creates a Router logging through the given logger.
func NewRouter(logger *log.Logger) *Router {
	return &Router{mux: http.NewServeMux(), logger: logger}
}

// Handler registers all routes of a [Handler].
func (r *Router) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.logger != nil {
		r.logger.Debug("request", "method", req.Method, "path", req.URL.Path)
	}
	r.mux.ServeHTTP(w, req)
}
