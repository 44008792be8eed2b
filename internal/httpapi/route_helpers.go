package httpapi

import "net/http"

// RouteHandler is the shape every JSON API handler in this package uses.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps an HTTP method to the handler that serves it.
type MethodRouter map[string]RouteHandler

// RouteByMethod dispatches to routes[r.Method], rendering the documented
// {"detail": ...} JSON shape for an unsupported method instead of the
// mux's plain-text default.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		renderErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handler(w, r)
}
