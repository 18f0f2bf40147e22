package entity

// EventKind tells requests and responses apart on the observation stream.
type EventKind int

const (
	EventRequest EventKind = iota
	EventResponse
)

// Resource types reported by the browser, lowercased.
const (
	ResourceDocument   = "document"
	ResourceStylesheet = "stylesheet"
	ResourceScript     = "script"
	ResourceImage      = "image"
	ResourceFont       = "font"
)

// NetworkEvent is one observed request or response of a browsing context.
type NetworkEvent struct {
	Kind         EventKind
	URL          string
	Method       string
	ResourceType string
	Status       int
	ContentType  string
}

// TraceRequest is a request entry of the per-page trace artifact.
type TraceRequest struct {
	URL          string `json:"url"`
	ResourceType string `json:"resourceType"`
	Method       string `json:"method"`
}

// Trace is written to capture/traces/<hash>.json.
type Trace struct {
	URL       string         `json:"url"`
	Requests  []TraceRequest `json:"requests"`
	Timestamp string         `json:"timestamp"`
}
