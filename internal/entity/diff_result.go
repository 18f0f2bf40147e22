package entity

// Breakpoint comparison errors, as written to diff-results.json.
const (
	DiffErrMissingBaseline = "Original screenshot not found"
	DiffErrDimension       = "Dimension mismatch"
	DiffErrCapture         = "Failed to capture local screenshot"
)

// ScreenshotPaths points at the three images of one comparison.
type ScreenshotPaths struct {
	Original string `json:"original"`
	Local    string `json:"local"`
	Diff     string `json:"diff"`
}

// BreakpointResult is the outcome of comparing one page at one width.
type BreakpointResult struct {
	Mismatch    float64         `json:"mismatch"`
	Pass        bool            `json:"pass"`
	Error       string          `json:"error,omitempty"`
	DiffPixels  int             `json:"diffPixels"`
	TotalPixels int             `json:"totalPixels"`
	Paths       ScreenshotPaths `json:"paths"`
}

// PageDiff holds every breakpoint result for one page.
type PageDiff struct {
	URL         string                    `json:"url"`
	LocalURL    string                    `json:"localUrl"`
	Breakpoints map[int]*BreakpointResult `json:"breakpoints"`
	Pass        bool                      `json:"pass"`
}

type DiffSummary struct {
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	PassRate string `json:"passRate"`
}

// DiffResults is written to diff-results.json.
type DiffResults struct {
	Pages   []*PageDiff `json:"pages"`
	Summary DiffSummary `json:"summary"`
}
