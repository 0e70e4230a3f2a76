package genai

import (
	"fmt"
	"net/http"
	"strings"

	"mockupstudio/internal/retry"
)

// APIError is a non-2xx response from Gemini.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini status %d", e.StatusCode)
}

// Kind maps the response onto the retry taxonomy. This is the only place
// where status codes and message text are inspected.
func (e *APIError) Kind() retry.Kind {
	status := strings.ToUpper(e.Status)
	msg := strings.ToLower(e.Message)

	switch {
	case e.StatusCode == http.StatusTooManyRequests,
		status == "RESOURCE_EXHAUSTED",
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "exceeded"):
		return retry.KindRateLimited
	case e.StatusCode == http.StatusInternalServerError,
		e.StatusCode == http.StatusServiceUnavailable,
		e.StatusCode == http.StatusBadGateway,
		e.StatusCode == http.StatusGatewayTimeout,
		status == "UNAVAILABLE",
		status == "INTERNAL",
		strings.Contains(msg, "overloaded"):
		return retry.KindServerOverloaded
	case e.StatusCode == http.StatusUnauthorized,
		e.StatusCode == http.StatusForbidden,
		status == "PERMISSION_DENIED",
		status == "UNAUTHENTICATED",
		strings.Contains(msg, "api key not valid"):
		return retry.KindFatal
	default:
		return retry.KindUnknown
	}
}
