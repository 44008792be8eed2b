package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// renderErrorHTML renders a minimal error page for redirect routes.
func renderErrorHTML(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Fastside error</title></head><body><h1>%d</h1><p>%s</p></body></html>", status, message)
}

// renderErrorJSON renders the documented {detail: string} shape for API routes.
func renderErrorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Detail string `json:"detail"`
	}{Detail: message})
}
