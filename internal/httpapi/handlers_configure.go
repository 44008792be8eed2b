package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fastside/fastside/internal/userconfig"
)

// configCookieMaxAge is a decade, matching the "long max-age" the
// configure/save endpoint is documented to set.
const configCookieMaxAge = 10 * 365 * 24 * 3600

// handleConfigureShow renders the visitor's current config cookie.
func (s *Server) handleConfigureShow(w http.ResponseWriter, r *http.Request) {
	cfg := s.userConfigFromRequest(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, ok := r.URL.Query()["success"]; ok {
		fmt.Fprint(w, "<p>Configuration saved.</p>")
	}
	fmt.Fprintf(w, "<h1>Fastside configuration</h1>"+
		"<p>required_tags: %s</p><p>forbidden_tags: %s</p><p>select_method: %s</p><p>ignore_fallback_warning: %v</p>",
		strings.Join(cfg.RequiredTags, ","), strings.Join(cfg.ForbiddenTags, ","), cfg.SelectMethod, cfg.IgnoreFallbackWarning)
}

// handleConfigureSave validates the base64 config string passed as the
// raw query, sets the config cookie, and redirects back to /configure.
func (s *Server) handleConfigureSave(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.RawQuery
	if encoded == "" {
		renderErrorHTML(w, http.StatusBadRequest, "missing config string")
		return
	}

	if _, err := userconfig.Decode(encoded); err != nil {
		renderErrorHTML(w, http.StatusBadRequest, "invalid config string: "+err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   userConfigCookieName,
		Value:  encoded,
		Path:   "/",
		MaxAge: configCookieMaxAge,
	})

	http.Redirect(w, r, "/configure?success", http.StatusTemporaryRedirect)
}
