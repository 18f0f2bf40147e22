package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/internal/adapter/filesystem"
	"github.com/user/site-mirror/internal/entity"
)

func TestRewriter_SkipsUnusablePages(t *testing.T) {
	ctx := context.Background()
	artifacts := filesystem.NewArtifactRepo(t.TempDir())
	reports := filesystem.NewReportRepo(artifacts)

	spaced := "http://x.test/a%20b"
	require.NoError(t, artifacts.Write(pageHTMLPath(rootURL), []byte(`<a href="/a%20b#top">x</a><a href="/gone">y</a>`)))
	require.NoError(t, artifacts.Write(pageHTMLPath(spaced), []byte(`<p>spaced</p>`)))
	require.NoError(t, artifacts.Write(pageHTMLPath("http://x.test/gone"), []byte(`<p>gone</p>`)))
	require.NoError(t, reports.SaveReport(ctx, &entity.Report{
		TargetURL: rootURL,
		PageList: []entity.PageEntry{
			{URL: rootURL, Status: 200},
			{URL: spaced, Status: 200},
			{URL: "http://x.test/gone", Status: 404},
			{URL: "http://x.test/lost", Status: 200},
		},
		AssetList: []entity.AssetEntry{
			{URL: cssURL, LocalPath: "assets/css/missing.css", Type: entity.ResourceStylesheet},
		},
	}))

	stats, err := NewRewriterUseCase(reports, artifacts, false).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &RewriteStats{Pages: 2, Skipped: 2}, stats)

	index, err := artifacts.Read("mirror/index.html")
	require.NoError(t, err)
	assert.Equal(t, `<a href="/a%20b/index.html">x</a><a href="/gone">y</a>`, string(index))

	assert.True(t, artifacts.Exists("mirror/a b/index.html"))
	assert.False(t, artifacts.Exists("mirror/gone/index.html"))
}

func TestRewriter_EncodedDotSegmentsStayInMirror(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	artifacts := filesystem.NewArtifactRepo(filepath.Join(parent, "out"))
	reports := filesystem.NewReportRepo(artifacts)

	climbing := "http://x.test/%2e%2e/%2e%2e/escaped"
	require.NoError(t, artifacts.Write(pageHTMLPath(climbing), []byte(`<p>climbing</p>`)))
	require.NoError(t, reports.SaveReport(ctx, &entity.Report{
		TargetURL: rootURL,
		PageList:  []entity.PageEntry{{URL: climbing, Status: 200}},
	}))

	stats, err := NewRewriterUseCase(reports, artifacts, false).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pages)

	assert.NoFileExists(t, filepath.Join(parent, "escaped", "index.html"))
	assert.True(t, artifacts.Exists("mirror/escaped/index.html"))
}

func TestRewriter_PreserveFragments(t *testing.T) {
	ctx := context.Background()
	artifacts := filesystem.NewArtifactRepo(t.TempDir())
	reports := filesystem.NewReportRepo(artifacts)

	require.NoError(t, artifacts.Write(pageHTMLPath(rootURL), []byte(`<a href="/about#team">x</a>`)))
	require.NoError(t, artifacts.Write(pageHTMLPath(aboutURL), []byte(`<p>about</p>`)))
	require.NoError(t, reports.SaveReport(ctx, &entity.Report{
		TargetURL: rootURL,
		PageList:  []entity.PageEntry{{URL: rootURL, Status: 200}, {URL: aboutURL, Status: 200}},
	}))

	_, err := NewRewriterUseCase(reports, artifacts, true).Run(ctx)
	require.NoError(t, err)
	index, err := artifacts.Read("mirror/index.html")
	require.NoError(t, err)
	assert.Equal(t, `<a href="/about/index.html#team">x</a>`, string(index))
}

func TestRewriter_NoManifest(t *testing.T) {
	artifacts := filesystem.NewArtifactRepo(t.TempDir())
	_, err := NewRewriterUseCase(filesystem.NewReportRepo(artifacts), artifacts, false).Run(context.Background())
	assert.Error(t, err)
}
