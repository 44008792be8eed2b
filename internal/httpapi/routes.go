package httpapi

import (
	"net/http"
	"strings"
)

// routes builds the full HTTP surface from §6: the primary resolve path,
// the dashboard, static assets, the configure cookie flow, the cached
// instance list, the history-safe redirector, and the JSON API.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/favicon.ico", s.handleFavicon)
	mux.HandleFunc("/robots.txt", s.handleRobots)

	mux.HandleFunc("/configure", s.handleConfigureShow)
	mux.HandleFunc("/configure/save", s.handleConfigureSave)

	mux.HandleFunc("/@cached/", s.handleCachedInstances)
	mux.HandleFunc("/_/", s.handleHistorySafeRedirect)

	mux.HandleFunc("/api/v1/redirect", s.handleAPIRedirect)
	mux.HandleFunc("/api/v1/make_user_config_string", s.handleAPIMakeUserConfigString)
	mux.HandleFunc("/api/v1/parse_user_config_string", s.handleAPIParseUserConfigString)

	// "/" is both the dashboard (exact path) and the catch-all entry
	// point for the primary resolve path, since ServeMux routes every
	// unmatched path here.
	mux.HandleFunc("/", s.handleRootOrResolve)

	return mux
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("User-agent: *\nDisallow: /\n"))
}

// handleRootOrResolve dispatches "/" to the dashboard and every other
// path to the primary resolver.
func (s *Server) handleRootOrResolve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		s.handleDashboard(w, r)
		return
	}
	s.handleResolve(w, r, strings.TrimPrefix(r.URL.Path, "/"))
}
