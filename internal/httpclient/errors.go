package httpclient

import (
	"fmt"
	"net/http"
)

// UpstreamError represents a non-2xx reply from an upstream service
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

// StatusText mirrors the reason phrase the upstream would have sent.
func (e *UpstreamError) StatusText() string {
	return http.StatusText(e.StatusCode)
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d %s from %s", e.StatusCode, e.StatusText(), e.URL)
}
