package firefly

import (
	"fmt"
	"strings"
)

// Operations that can fail with an AuthError.
const (
	OpToken    = "token"
	OpGenerate = "generate"
)

// APIError codes.
const (
	CodeHTTPStatus       = "http_status"
	CodeTransport        = "transport_error"
	CodeRead             = "read_error"
	CodeUnexpectedFormat = "unexpected_format"
)

// AuthError reports an authentication failure. Op is OpToken when the
// identity provider exchange failed and OpGenerate when the generation
// endpoint rejected the bearer token.
type AuthError struct {
	Op         string
	URL        string
	StatusCode int
	Body       []byte
	Cause      error
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	switch e.Op {
	case OpGenerate:
		b.WriteString("firefly: unauthorized")
	default:
		b.WriteString("firefly: failed to retrieve access token")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		b.WriteString(": ")
		b.WriteString(body)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Cause }

// APIError reports any other failure of the generation call: a non-2xx
// status, a transport failure, or a body that does not have the expected
// shape.
type APIError struct {
	Code       string
	URL        string
	StatusCode int
	Body       []byte
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	switch e.Code {
	case CodeHTTPStatus:
		fmt.Fprintf(&b, "firefly: api error: status %d", e.StatusCode)
	case CodeUnexpectedFormat:
		b.WriteString("firefly: unexpected response format")
	case CodeRead:
		b.WriteString("firefly: reading response failed")
	default:
		b.WriteString("firefly: request failed")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		b.WriteString(": ")
		b.WriteString(body)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Cause }

// ValidationError is returned before any network call when a request
// parameter is invalid.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "firefly: invalid request: " + e.Message
	}
	return fmt.Sprintf("firefly: invalid %s: %s", e.Field, e.Message)
}
