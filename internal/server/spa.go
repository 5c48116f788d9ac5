package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// apiPrefixes never fall back to index.html; unknown API paths get a JSON 404.
var apiPrefixes = []string{"/auth/", "/games/", "/sessions/"}

// handleSPA serves the built dashboard from dir, falling back to index.html
// for client-side routes.
func handleSPA(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		for _, p := range apiPrefixes {
			if strings.HasPrefix(r.URL.Path, p) {
				writeError(w, http.StatusNotFound, "route not found")
				return
			}
		}

		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
