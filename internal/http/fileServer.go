package http

import (
	"io/fs"
	"net/http"
	"strings"
)

// NewFileServerHandler serves the browser assets under /static/. Page
// templates live in the same filesystem and are never served.
func NewFileServerHandler(assets fs.FS) http.HandlerFunc {
	fileServer := http.StripPrefix("/static", http.FileServer(http.FS(assets)))

	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/static/")
		if !strings.HasPrefix(path, "css/") && !strings.HasPrefix(path, "js/") {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(path, "/") {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	}
}
