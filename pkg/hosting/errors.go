package hosting

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gitpr-dev/gitpr/internal/security"
)

// ErrUnrecognizedHost is returned by Resolve when the host cannot be mapped
// to a provider and no explicit type override is configured.
var ErrUnrecognizedHost = errors.New("unrecognized host: configure the provider type for this host")

// ErrorKind classifies a provider failure independently of the provider's
// REST dialect. Callers branch on the kind, never on raw status codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindNotFound
	KindConflict
	KindRateLimited
	KindNetwork
	KindMalformedResponse
	KindServerError
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "authentication failed"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate limited"
	case KindNetwork:
		return "network error"
	case KindMalformedResponse:
		return "malformed response"
	case KindServerError:
		return "server error"
	default:
		return "unknown error"
	}
}

// Error is the normalized provider error. Status is the HTTP status when the
// failure came from a response, 0 otherwise. Message never contains
// credentials; adapters sanitize provider text before storing it.
type Error struct {
	Kind     ErrorKind
	Status   int
	Provider Provider
	Message  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *Error
	return errors.As(err, &he) && he.Kind == kind
}

// ClassifyStatus maps an HTTP status code to an error kind. Statuses below
// 400 classify as KindUnknown and should not reach this function.
func ClassifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound, http.StatusGone:
		return KindNotFound
	case http.StatusMethodNotAllowed, http.StatusConflict, http.StatusUnprocessableEntity:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	}
	if status >= 500 {
		return KindServerError
	}
	if status >= 400 {
		return KindUnknown
	}
	return KindUnknown
}

// statusError builds a *Error from an HTTP status and provider message.
func statusError(provider Provider, status int, message string) *Error {
	return &Error{
		Kind:     ClassifyStatus(status),
		Status:   status,
		Provider: provider,
		Message:  security.SanitizeString(message),
	}
}

// networkError wraps a transport-level failure.
func networkError(provider Provider, err error) *Error {
	return &Error{
		Kind:     KindNetwork,
		Provider: provider,
		Message:  security.SanitizeString(err.Error()),
	}
}

// malformedError wraps a response body that could not be decoded.
func malformedError(provider Provider, err error) *Error {
	return &Error{
		Kind:     KindMalformedResponse,
		Provider: provider,
		Message:  security.SanitizeString(err.Error()),
	}
}
