package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/adapter/filesystem"
	"github.com/user/site-mirror/internal/delivery/http/handler"
	"github.com/user/site-mirror/internal/entity"
)

func writeFile(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newServer(t *testing.T, files map[string]string) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		writeFile(t, dir, rel, body)
	}
	reports := filesystem.NewReportRepo(filesystem.NewArtifactRepo(dir))
	srv := httptest.NewServer(New(handler.NewHandler(dir, reports)))
	t.Cleanup(srv.Close)
	return srv, dir
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

var mirrorFiles = map[string]string{
	"mirror/index.html":       "home",
	"mirror/about/index.html": "about",
	"mirror/empty/.keep":      "",
	"assets/css/abc.css":      "body{}",
}

func TestRouter_StaticFiles(t *testing.T) {
	srv, _ := newServer(t, mirrorFiles)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"root", "/", http.StatusOK, "home"},
		{"directory index", "/about/", http.StatusOK, "about"},
		{"directory without slash", "/about", http.StatusOK, "about"},
		{"index file", "/about/index.html", http.StatusOK, "about"},
		{"asset", "/assets/css/abc.css", http.StatusOK, "body{}"},
		{"unknown page falls back", "/nope/deeper", http.StatusOK, "home"},
		{"missing asset falls back", "/assets/css/none.css", http.StatusOK, "home"},
		{"directory without index falls back", "/empty/", http.StatusOK, "home"},
		{"traversal stays inside", "/../../etc/passwd", http.StatusOK, "home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.Client(), srv.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, body)
			assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
		})
	}
}

func TestRouter_AssetContentType(t *testing.T) {
	srv, _ := newServer(t, mirrorFiles)
	resp, _ := get(t, srv.Client(), srv.URL+"/assets/css/abc.css")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

func TestRouter_NoMirrorIs404(t *testing.T) {
	srv, _ := newServer(t, map[string]string{"assets/js/a.js": "1"})

	resp, _ := get(t, srv.Client(), srv.URL+"/anything")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, srv.Client(), srv.URL+"/_mirror/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","mirror":false}`, body)
}

func TestRouter_ReportEndpoints(t *testing.T) {
	srv, dir := newServer(t, mirrorFiles)

	resp, body := get(t, srv.Client(), srv.URL+"/_mirror/report")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"No report available"}`, body)

	reports := filesystem.NewReportRepo(filesystem.NewArtifactRepo(dir))
	require.NoError(t, reports.SaveReport(context.Background(), &entity.Report{
		TargetURL: "http://x.test/",
		Pages:     entity.PageCounts{Total: 1, Successful: 1},
		PageList:  []entity.PageEntry{{URL: "http://x.test/", Status: 200}},
	}))
	require.NoError(t, reports.SaveDiffResults(context.Background(), &entity.DiffResults{
		Pages:   []*entity.PageDiff{},
		Summary: entity.DiffSummary{PassRate: "0.0"},
	}))

	resp, body = get(t, srv.Client(), srv.URL+"/_mirror/report")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var report entity.Report
	require.NoError(t, json.Unmarshal([]byte(body), &report))
	assert.Equal(t, "http://x.test/", report.TargetURL)
	assert.Equal(t, 1, report.Pages.Successful)

	resp, body = get(t, srv.Client(), srv.URL+"/_mirror/diff")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"passRate":"0.0"`)
}

func TestRouter_Metrics(t *testing.T) {
	srv, _ := newServer(t, mirrorFiles)
	get(t, srv.Client(), srv.URL+"/")

	resp, body := get(t, srv.Client(), srv.URL+"/_mirror/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "mirror_http_requests_total")
}
