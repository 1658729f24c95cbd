// Package webui serves the built web front-end bundle and handles the
// static asset / SPA-fallback routing a karaoke performer's browser hits at
// "/" and "/{room}": path-traversal containment plus an index.html
// fallback for client-side routes.
package webui

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Handler serves webDir as a single-page application bundle.
type Handler struct {
	webDir string
}

// New returns a Handler rooted at webDir.
func New(webDir string) *Handler {
	return &Handler{webDir: webDir}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	absWebDir, err := filepath.Abs(h.webDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server configuration error")
		return
	}

	reqPath := r.URL.Path
	if reqPath == "/" || reqPath == "" {
		reqPath = "/index.html"
	}

	cleanPath := filepath.Clean(reqPath)
	filePath := filepath.Join(absWebDir, cleanPath)

	absFilePath, err := filepath.Abs(filePath)
	if err != nil || (!strings.HasPrefix(absFilePath, absWebDir+string(filepath.Separator)) && absFilePath != absWebDir) {
		// Path escaped webDir: serve the SPA index instead. Room-code routes
		// that name no existing file fall back to index.html below.
		absFilePath = filepath.Join(absWebDir, "index.html")
	}

	info, err := os.Stat(absFilePath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, absFilePath)
		return
	}

	indexPath := filepath.Join(absWebDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		writeError(w, http.StatusNotFound, "web front-end not built: no index.html under the configured web directory")
		return
	}
	http.ServeFile(w, r, indexPath)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": message})
}
