package filesystem

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/user/site-mirror/internal/entity"
	"github.com/user/site-mirror/internal/repository"
)

// DiffReportFile is the HTML rendering of diff-results.json.
const DiffReportFile = "diff-report.html"

var diffReportTmpl = template.Must(template.New("diff-report").Funcs(template.FuncMap{
	"widths": sortedWidths,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Visual Diff Report - {{.Target}}</title>
<style>
body{font-family:system-ui,sans-serif;padding:2rem;background:#f5f5f5;color:#333}
.summary,.page{background:#fff;padding:1.5rem;border-radius:8px;margin-bottom:1.5rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.breakpoint{margin-top:1rem}
.badge{padding:.25rem .75rem;border-radius:4px;font-size:.875rem}
.pass{background:#dcfce7;color:#166534}.fail{background:#fee2e2;color:#991b1b}
.shots{display:grid;grid-template-columns:repeat(3,1fr);gap:.5rem}
.shots img{width:100%;border:1px solid #e5e7eb}
.error{color:#dc2626}
</style>
</head>
<body>
<h1>Visual Diff Report</h1>
<p>Generated: {{.Generated}}</p>
<div class="summary">
<p>Total pages: {{.Summary.Total}} &middot; Passed: {{.Summary.Passed}} &middot; Failed: {{.Summary.Failed}} &middot; Pass rate: {{.Summary.PassRate}}%</p>
</div>
{{if .Failed}}
<h2>Failed Pages ({{len .Failed}})</h2>
{{range .Failed}}{{template "page" .}}{{end}}
{{else}}
<p class="pass">All pages passed visual comparison.</p>
{{end}}
<h2>All Pages ({{len .All}})</h2>
{{range .All}}{{template "page" .}}{{end}}
</body>
</html>
{{define "page"}}<div class="page">
<h3>{{.URL}} <span class="badge {{if .Pass}}pass{{else}}fail{{end}}">{{if .Pass}}PASS{{else}}FAIL{{end}}</span></h3>
<p><a href="{{.LocalURL}}">{{.LocalURL}}</a></p>
{{$bps := .Breakpoints}}{{range $w := widths $bps}}{{$r := index $bps $w}}<div class="breakpoint">
<h4>{{$w}}px <span class="badge {{if $r.Pass}}pass{{else}}fail{{end}}">{{if $r.Error}}{{$r.Error}}{{else}}{{printf "%.2f" $r.Mismatch}}%{{end}}</span></h4>
<div class="shots">
{{with $r.Paths.Original}}<figure><img src="{{.}}" alt="original"><figcaption>Original</figcaption></figure>{{end}}
{{with $r.Paths.Local}}<figure><img src="{{.}}" alt="local"><figcaption>Local</figcaption></figure>{{end}}
{{with $r.Paths.Diff}}<figure><img src="{{.}}" alt="diff"><figcaption>Diff</figcaption></figure>{{end}}
</div>
</div>
{{end}}</div>{{end}}`))

// WriteDiffReport renders a human readable HTML report next to diff-results.json.
func WriteDiffReport(artifacts repository.ArtifactRepository, targetURL string, results *entity.DiffResults) error {
	data := struct {
		Target    string
		Generated string
		Summary   entity.DiffSummary
		Failed    []*entity.PageDiff
		All       []*entity.PageDiff
	}{
		Target:    targetURL,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Summary:   results.Summary,
		All:       results.Pages,
	}
	for _, p := range results.Pages {
		if !p.Pass {
			data.Failed = append(data.Failed, p)
		}
	}

	var buf bytes.Buffer
	if err := diffReportTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", DiffReportFile, err)
	}
	return artifacts.Write(DiffReportFile, buf.Bytes())
}

func sortedWidths(bps map[int]*entity.BreakpointResult) []int {
	widths := make([]int, 0, len(bps))
	for w := range bps {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}
