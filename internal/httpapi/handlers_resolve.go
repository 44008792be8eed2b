package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fastside/fastside/internal/resolver"
	"github.com/fastside/fastside/internal/userconfig"
)

// userConfigCookieName is the cookie the browser extension and dashboard
// both read and write.
const userConfigCookieName = "config"

// userConfigFromRequest reads the config cookie, silently degrading to
// defaults on any parse failure (§7 "cookie parse failures silently
// degrade to the default user config").
func (s *Server) userConfigFromRequest(r *http.Request) userconfig.Config {
	cookie, err := r.Cookie(userConfigCookieName)
	if err != nil {
		return userconfig.Default()
	}
	return userconfig.FromCookie(cookie.Value)
}

// handleResolve is the primary redirect path (§4.4): resolve path+query
// against the catalog and snapshot, then either redirect or show the
// fallback warning page.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, path string) {
	cfg := s.userConfigFromRequest(r)

	result, err := s.resolver.Resolve(path, r.URL.RawQuery, cfg)
	if err != nil {
		renderErrorHTML(w, err.StatusCode(), err.Error())
		return
	}

	if resolver.ShouldShowFallbackWarning(result.IsFallback, cfg, r.Method) {
		renderFallbackWarning(w, result.URL)
		return
	}

	http.Redirect(w, r, result.URL, http.StatusTemporaryRedirect)
}

// renderFallbackWarning shows a 15-second meta-refresh page before
// sending the visitor on to a fallback instance, rather than redirecting
// immediately. The refresh header mirrors the meta tag so clients that
// honor one but not the other still wait out the warning.
func renderFallbackWarning(w http.ResponseWriter, target string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("refresh", fmt.Sprintf("15; url=%s", target))
	fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta http-equiv="refresh" content="15;url=%s"></head>`+
		`<body><p>No healthy instance was found. Redirecting to a fallback in 15 seconds.</p>`+
		`<p><a href="%s">Continue now</a></p></body></html>`, target, target)
}

// handleHistorySafeRedirect implements /_/{path}: a meta-refresh bounce to
// /{path} (with its query preserved) so the visited history entry is the
// final destination rather than the resolver route.
func (s *Server) handleHistorySafeRedirect(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/_/")
	target := "/" + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("refresh", fmt.Sprintf("1; url=%s", target))
	fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta http-equiv="refresh" content="1;url=%s"></head><body></body></html>`, target)
}
