package worker

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

//go:embed static/*
var staticFS embed.FS

var staticSubFS fs.FS

func init() {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("static assets missing from build: " + err.Error())
	}
	staticSubFS = sub
}

// serveIndex serves the dashboard page.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	serveStaticFile(w, "index.html", "text/html; charset=utf-8")
}

// serveAssets serves the JS and CSS bundled into the binary.
func serveAssets(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	serveStaticFile(w, name, mime.TypeByExtension(filepath.Ext(name)))
}

func serveStaticFile(w http.ResponseWriter, name, contentType string) {
	content, err := fs.ReadFile(staticSubFS, name)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	// Serve fresh every time so dashboard tweaks land without cache busting.
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(content)
}
