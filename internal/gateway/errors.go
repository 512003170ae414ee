package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// Error codes returned by the gateway. Every failed call maps to
// exactly one of these.
const (
	CodeAuth        = "authentication_error"
	CodeRateLimited = "rate_limit_exceeded"
	CodeUnavailable = "server_error"
	CodeProtocol    = "protocol_error"
	CodeTimeout     = "timeout"
	CodeConnection  = "connection_error"
	CodeDecode      = "decode_error"
)

// Error is the typed outcome of a failed completion call. Callers are
// expected to convert it into a fallback response rather than
// propagating it to end users.
type Error struct {
	Code       string
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// classify maps a go-openai client error onto the gateway taxonomy.
func classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Code:       codeForStatus(apiErr.HTTPStatusCode),
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			cause:      err,
		}
	}

	// Non-2xx responses whose body isn't a well-formed error payload.
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Code:       codeForStatus(reqErr.HTTPStatusCode),
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
			cause:      err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "request timed out", cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: CodeTimeout, Message: "request timed out", cause: err}
	}

	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &synErr) || errors.As(err, &typeErr) {
		return &Error{Code: CodeDecode, Message: "malformed response body", cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Code: CodeConnection, Message: "connection failed: " + urlErr.Err.Error(), cause: err}
	}

	return &Error{Code: CodeConnection, Message: err.Error(), cause: err}
}

func codeForStatus(status int) string {
	switch {
	case status == 401:
		return CodeAuth
	case status == 429:
		return CodeRateLimited
	case status >= 500:
		return CodeUnavailable
	default:
		return CodeProtocol
	}
}
