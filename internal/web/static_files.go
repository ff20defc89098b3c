package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var uiFiles embed.FS

const tabLinkPrefix = "/t/"

// staticFileServer serves the UI assets. They are revalidated on every
// load so a restarted server never leaves a browser on an old script.
func (s *Server) staticFileServer() http.Handler {
	assets, err := fs.Sub(uiFiles, "static")
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeAPIError(w, http.StatusInternalServerError, "ASSETS_UNAVAILABLE", "ui assets unavailable")
		})
	}
	files := http.FileServerFS(assets)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

// tabFromLink extracts the tab id of a /t/{tabID} link.
func tabFromLink(path string) (string, bool) {
	id, ok := strings.CutPrefix(path, tabLinkPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// handleIndex serves the UI shell for / and for tab links. The page reads
// the tab id from its own URL, so unknown tabs still get the shell.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if r.URL.Path != "/" {
		if _, ok := tabFromLink(r.URL.Path); !ok {
			writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "page not found")
			return
		}
	}

	page, err := uiFiles.ReadFile("static/index.html")
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "ASSETS_UNAVAILABLE", "ui assets unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(page)
}
