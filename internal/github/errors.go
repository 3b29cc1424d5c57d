package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// Sentinel errors for errors.Is checks by callers.
	ErrNoToken      = errors.New("github: no access token configured")
	ErrNotFound     = errors.New("github: resource not found")
	ErrUnauthorized = errors.New("github: bad or expired credentials")
	ErrForbidden    = errors.New("github: access forbidden")
	ErrConflict     = errors.New("github: file changed since it was read")
	ErrRateLimited  = errors.New("github: rate limit exceeded")
	ErrInvalid      = errors.New("github: request rejected as invalid")
	ErrUnavailable  = errors.New("github: host unreachable or transport failure")
	ErrUpstream     = errors.New("github: upstream error")
	ErrBadResponse  = errors.New("github: malformed response")
)

// APIError wraps a sentinel with the failing operation and response details.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}

// classify maps a GitHub error response onto a sentinel.
func classify(status int, body []byte) error {
	lower := strings.ToLower(string(body))
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden && strings.Contains(lower, "rate limit"):
		return ErrRateLimited
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusUnprocessableEntity && strings.Contains(lower, "sha"):
		// "sha" wasn't supplied / does not match: someone else wrote the file.
		return ErrConflict
	case status == http.StatusUnprocessableEntity:
		return ErrInvalid
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// truncate keeps error bodies readable in logs.
func truncate(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
