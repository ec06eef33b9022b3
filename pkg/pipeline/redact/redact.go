// Package redact masks credentials in URLs and messages before they reach logs
// or error strings.
package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Matches the userinfo part of a URL, e.g. a proxy or mirror with basic auth.
	userinfoRe = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/\s@"']+@`)

	// Query parameters that carry credentials on signed download links.
	secretParamRe = regexp.MustCompile(`(?i)([?&](?:api[_-]?key|key|token|access[_-]?token|signature|sig|x-amz-signature|x-amz-credential)=)[^&\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = userinfoRe.ReplaceAllString(out, "${1}<redacted>@")
	out = secretParamRe.ReplaceAllString(out, "${1}<redacted>")
	return strings.TrimSpace(out)
}
