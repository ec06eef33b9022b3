package scryfall

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/redact"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	// KindTransport is a connection, TLS or timeout failure.
	KindTransport ErrorKind = "transport"
	// KindStatus is a non-2xx response.
	KindStatus ErrorKind = "status"
	// KindMetadata is a bulk-data listing that cannot be used.
	KindMetadata ErrorKind = "metadata"
	// KindPayload is a card download that is not a JSON array of objects.
	KindPayload ErrorKind = "payload"
)

// FetchError is returned by every Client method that talks to the provider.
type FetchError struct {
	Kind ErrorKind
	Op   string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "scryfall fetch error"
	}
	msg := fmt.Sprintf("scryfall %s: %s error", e.Op, e.Kind)
	if e.URL != "" {
		msg += " url=" + redact.Secrets(e.URL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// errorEnvelope is the error object Scryfall returns with non-2xx responses.
type errorEnvelope struct {
	Object   string   `json:"object"`
	Code     string   `json:"code"`
	Details  string   `json:"details"`
	Warnings []string `json:"warnings"`
}

// HTTPError summarizes a non-2xx response.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Code       string
	Details    string

	// Snippet is a truncated hint for responses without an error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "scryfall http error"
	}
	parts := []string{
		fmt.Sprintf("scryfall api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if e.Code != "" {
		parts = append(parts, "code="+e.Code)
	}
	if e.Details != "" {
		parts = append(parts, "details="+e.Details)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

// Retryable reports whether the provider asked to be retried later.
func (e *HTTPError) Retryable() bool {
	return e != nil && (e.StatusCode == 429 || e.StatusCode >= 500)
}

func newHTTPError(op string, statusCode int, status string, body []byte) *HTTPError {
	h := &HTTPError{Op: op, StatusCode: statusCode, Status: status}
	if h.Status == "" {
		h.Status = fmt.Sprintf("%d", statusCode)
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil && env.Object == "error" {
		h.Code = strings.TrimSpace(env.Code)
		h.Details = strings.TrimSpace(env.Details)
		if h.Code != "" || h.Details != "" {
			return h
		}
	}

	h.Snippet = truncate(body)
	return h
}

func truncate(body []byte) string {
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := strings.ReplaceAll(redact.Secrets(string(b)), "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
