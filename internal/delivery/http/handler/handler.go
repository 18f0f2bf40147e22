package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/user/site-mirror/internal/delivery/http/response"
	"github.com/user/site-mirror/internal/repository"
)

const (
	assetsPrefix = "/assets/"
	indexFile    = "index.html"
)

// Handler serves the mirror tree and the run artifacts of an output directory.
type Handler struct {
	assetsDir string
	mirrorDir string
	reports   repository.ReportRepository
}

func NewHandler(outputDir string, reports repository.ReportRepository) *Handler {
	return &Handler{
		assetsDir: filepath.Join(outputDir, "assets"),
		mirrorDir: filepath.Join(outputDir, "mirror"),
		reports:   reports,
	}
}

// HandleStatic serves /assets/* from assets/ and everything else from
// mirror/. Directories are served through their index.html. Anything not
// found falls back to mirror/index.html, or 404 when that is absent too.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if rest, ok := strings.CutPrefix(name, assetsPrefix); ok {
		if h.serveFrom(w, r, h.assetsDir, "/"+rest) {
			return
		}
	}
	if h.serveFrom(w, r, h.mirrorDir, name) {
		return
	}
	h.serveFallback(w, r)
}

func (h *Handler) serveFrom(w http.ResponseWriter, r *http.Request, root, name string) bool {
	full := filepath.Join(root, filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(full, indexFile)); err != nil {
			return false
		}
	}

	req := r.Clone(r.Context())
	req.URL.Path = name
	if name != "/" && strings.HasSuffix(r.URL.Path, "/") {
		req.URL.Path += "/"
	}
	req.URL.RawPath = ""
	http.FileServer(http.Dir(root)).ServeHTTP(w, req)
	return true
}

func (h *Handler) serveFallback(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(h.mirrorDir, indexFile))
	if err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Page not found", http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, indexFile, info.ModTime(), f)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(filepath.Join(h.mirrorDir, indexFile))
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Mirror: err == nil})
}

// HandleReport returns the crawl manifest.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.LoadReport(r.Context())
	if err != nil {
		h.writeLoadError(w, "report", err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// HandleDiff returns the results of the last visual diff.
func (h *Handler) HandleDiff(w http.ResponseWriter, r *http.Request) {
	results, err := h.reports.LoadDiffResults(r.Context())
	if err != nil {
		h.writeLoadError(w, "diff results", err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) writeLoadError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.writeJSONError(w, "No "+what+" available", http.StatusNotFound)
		return
	}
	slog.Error("Failed to load "+what, "error", err)
	h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
