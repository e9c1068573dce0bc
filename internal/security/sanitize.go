// Package security provides token redaction for log lines and error text.
//
// Every hosting adapter talks to its provider with a bearer token, an app
// password or a personal access token. Provider error bodies and transport
// errors can echo request data back, so anything that ends up in a log line
// or a user-facing error message is passed through [SanitizeString] first.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	gitlabTokenRegex *regexp.Regexp
	githubTokenRegex *regexp.Regexp
	bearerTokenRegex *regexp.Regexp
	authHeaderRegex  *regexp.Regexp
	regexOnce        sync.Once

	errSanitized = errors.New("sanitized error")
)

func compilePatterns() {
	regexOnce.Do(func() {
		// GitLab personal access tokens: glpat-<6+ chars>. Real tokens are
		// 20+ chars, shorter ones are caught anyway.
		gitlabTokenRegex = regexp.MustCompile(`glpat-[a-zA-Z0-9_-]{6,}`)

		// GitHub personal access tokens: ghp_/gho_/ghs_ + 20+ chars.
		githubTokenRegex = regexp.MustCompile(`gh[ops]_[a-zA-Z0-9]{20,}`)

		// Generic long base64-like strings, covers Gitea tokens and
		// Bitbucket app passwords leaked outside a header.
		bearerTokenRegex = regexp.MustCompile(`\b[A-Za-z0-9+/=]{40,200}\b`)

		// Authorization headers, both Basic and Bearer.
		authHeaderRegex = regexp.MustCompile(`(?i)authorization:\s*(?:bearer|basic|token)\s+[a-zA-Z0-9+/=_:-]{10,}`)
	})
}

// SanitizeString removes provider tokens from a string. It redacts GitLab
// tokens (glpat-*), GitHub tokens (ghp_/gho_/ghs_*), authorization headers,
// and long opaque token-shaped strings.
//
// Safe for concurrent use; patterns are compiled once.
func SanitizeString(s string) string {
	compilePatterns()

	s = gitlabTokenRegex.ReplaceAllString(s, "[gitlab-token-redacted]")
	s = githubTokenRegex.ReplaceAllString(s, "[github-token-redacted]")
	s = authHeaderRegex.ReplaceAllString(s, "Authorization: [redacted]")

	// Generic redaction last, and only when nothing provider-specific was
	// left half-matched, to avoid over-redaction.
	if strings.Contains(s, "glpat-") || strings.Contains(s, "ghp_") ||
		strings.Contains(s, "gho_") || strings.Contains(s, "ghs_") {
		return s
	}
	return bearerTokenRegex.ReplaceAllString(s, "[token-redacted]")
}

// SanitizeError wraps an error with [SanitizeString] applied to its message.
// Returns nil if err is nil. The original error chain is not preserved; the
// returned error wraps an internal sentinel instead of the original cause so
// the token cannot be recovered through Unwrap.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", errSanitized, SanitizeString(err.Error()))
}
