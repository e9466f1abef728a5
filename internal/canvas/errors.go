package canvas

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the Canvas API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Body
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("canvas API %s: HTTP %d: %s", e.Endpoint, e.StatusCode, strings.TrimSpace(msg))
}

// IsRateLimited reports whether err is a Canvas throttle rejection.
// Canvas signals quota exhaustion with 403 and a "Rate Limit Exceeded"
// body rather than 429, but 429 is handled too for proxies that rewrite it.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return apiErr.StatusCode == http.StatusForbidden &&
		strings.Contains(apiErr.Body, "Rate Limit Exceeded")
}

// retryable reports whether a request that produced err is worth retrying.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return IsRateLimited(err) || apiErr.StatusCode >= 500
	}
	// Transport-level failures (reset connections, timeouts) are retryable.
	return true
}
