package llm

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// maxDetailRunes bounds upstream error detail passed back to clients
const maxDetailRunes = 200

// StatusError is a non-2xx response from an upstream API
type StatusError struct {
	StatusCode int
	Header     http.Header
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

// UpstreamError is a permanent upstream failure surfaced to the client
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Upstream error %d", e.StatusCode)
}

// NewUpstreamError builds an UpstreamError with detail cut to 200 runes
func NewUpstreamError(status int, detail string) *UpstreamError {
	return &UpstreamError{StatusCode: status, Detail: truncateDetail(detail)}
}

func truncateDetail(s string) string {
	if utf8.RuneCountInString(s) <= maxDetailRunes {
		return s
	}
	return string([]rune(s)[:maxDetailRunes])
}
