package response

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	// Mirror reports whether mirror/index.html is present.
	Mirror bool `json:"mirror"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
