package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fastside/fastside/internal/userconfig"
)

// apiRedirectRequest is the body of POST /api/v1/redirect: the single url
// the caller wants resolved (any query string embedded in it as-is, the
// same way a browser's request path carries one), plus the visitor's
// config inline since API callers don't necessarily carry the config
// cookie.
type apiRedirectRequest struct {
	URL    string             `json:"url"`
	Config *userconfig.Config `json:"config"`
}

type apiRedirectResponse struct {
	URL        string `json:"url"`
	IsFallback bool   `json:"is_fallback"`
}

// handleAPIRedirect resolves a url the same way handleResolve does, but
// returns JSON instead of issuing the redirect itself.
func (s *Server) handleAPIRedirect(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{http.MethodPost: s.postAPIRedirect})
}

func (s *Server) postAPIRedirect(w http.ResponseWriter, r *http.Request) {
	var req apiRedirectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg := s.userConfigFromRequest(r)
	if req.Config != nil {
		cfg = *req.Config
	}

	result, resErr := s.resolver.Resolve(req.URL, "", cfg)
	if resErr != nil {
		renderErrorJSON(w, resErr.StatusCode(), resErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, apiRedirectResponse{URL: result.URL, IsFallback: result.IsFallback})
}

// handleAPIMakeUserConfigString encodes a posted Config as the base64
// string the configure cookie and /configure/save endpoint expect,
// returning it as a bare JSON string rather than a wrapping object.
func (s *Server) handleAPIMakeUserConfigString(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{http.MethodPost: s.postAPIMakeUserConfigString})
}

func (s *Server) postAPIMakeUserConfigString(w http.ResponseWriter, r *http.Request) {
	var cfg userconfig.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		renderErrorJSON(w, http.StatusBadRequest, "invalid config body: "+err.Error())
		return
	}

	encoded, err := userconfig.Encode(cfg)
	if err != nil {
		renderErrorJSON(w, http.StatusInternalServerError, "failed to encode config: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, encoded)
}

// handleAPIParseUserConfigString decodes a posted config string (a bare
// JSON string body) back into a Config, for the extension's settings UI
// to round-trip through.
func (s *Server) handleAPIParseUserConfigString(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{http.MethodPost: s.postAPIParseUserConfigString})
}

func (s *Server) postAPIParseUserConfigString(w http.ResponseWriter, r *http.Request) {
	var configString string
	if err := json.NewDecoder(r.Body).Decode(&configString); err != nil {
		renderErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, err := userconfig.Decode(configString)
	if err != nil {
		renderErrorJSON(w, http.StatusBadRequest, "invalid config string: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
