package httpapi

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))
