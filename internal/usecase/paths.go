package usecase

import (
	"fmt"

	"github.com/user/site-mirror/pkg/utils"
)

// Workspace layout, relative to the output directory.
const (
	AssetsDir  = "assets"
	MirrorDir  = "mirror"
	PagesDir   = "capture/pages"
	TracesDir  = "capture/traces"
	ScreensDir = "capture/screens"
)

func pageHTMLPath(pageURL string) string {
	return fmt.Sprintf("%s/%s.html", PagesDir, utils.HashURL(pageURL))
}

func tracePath(pageURL string) string {
	return fmt.Sprintf("%s/%s.json", TracesDir, utils.HashURL(pageURL))
}

// BaselineScreenshotPath is the capture-time screenshot of pageURL at width.
func BaselineScreenshotPath(pageURL string, width int) string {
	return fmt.Sprintf("%s/%s-%d.png", ScreensDir, utils.HashURL(pageURL), width)
}

func localScreenshotPath(pageURL string, width int) string {
	return fmt.Sprintf("%s/%s-%d-local.png", ScreensDir, utils.HashURL(pageURL), width)
}

func diffScreenshotPath(pageURL string, width int) string {
	return fmt.Sprintf("%s/%s-%d-diff.png", ScreensDir, utils.HashURL(pageURL), width)
}
