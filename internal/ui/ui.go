package ui

import (
	"embed"
	"html/template"
	"net/http"
	"os"
)

//go:embed callback.html
var content embed.FS

// CallbackPage is the data rendered after a provider redirect.
type CallbackPage struct {
	Platform string
	Success  bool
	Title    string
	Message  string
}

var embedded = template.Must(template.ParseFS(content, "callback.html"))

// RenderCallback writes the callback page with the given status code.
// If SOCIALSYNC_DEV=1 is set, the template is re-read from disk on each
// request for live editing.
func RenderCallback(w http.ResponseWriter, status int, page CallbackPage) {
	tmpl := embedded
	if os.Getenv("SOCIALSYNC_DEV") == "1" {
		t, err := template.ParseFiles("internal/ui/callback.html")
		if err != nil {
			http.Error(w, "callback page not found: "+err.Error(), http.StatusInternalServerError)
			return
		}
		tmpl = t
		w.Header().Set("Cache-Control", "no-cache")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tmpl.Execute(w, page)
}
