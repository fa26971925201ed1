package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies provider failures.
type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "auth_error"
	ErrorTypeEndpoint  ErrorType = "endpoint_error"
	ErrorTypeModel     ErrorType = "model_error"
	ErrorTypeRateLimit ErrorType = "rate_limited"
	ErrorTypeResponse  ErrorType = "malformed_response"
	ErrorTypeUnknown   ErrorType = "unknown_error"
)

// Error is a classified embedding provider failure.
// Retryable is advisory: the engine itself never retries provider calls.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	StatusCode int
	Model      string
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " HTTP %d", e.StatusCode)
	}
	if e.Model != "" {
		fmt.Fprintf(&b, " model=%s", e.Model)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a classified error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: errType, Message: message, Retryable: retryable, Cause: cause}
}

// ClassifyError maps an error returned by the OpenAI-compatible client onto an *Error.
// Structured API errors are classified by status code, transport errors by kind.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, "", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeEndpoint, "request timeout", true, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewError(ErrorTypeEndpoint, "request canceled", false, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NewError(ErrorTypeEndpoint, "connection failed", true, err)
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") {
		return NewError(ErrorTypeEndpoint, "connection failed", true, err)
	}

	return NewError(ErrorTypeUnknown, "embedding request failed", false, err)
}

func classifyStatus(status int, message string, cause error) *Error {
	var e *Error
	lower := strings.ToLower(message)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e = NewError(ErrorTypeAuth, "authentication failed", false, cause)
	case status == http.StatusTooManyRequests:
		e = NewError(ErrorTypeRateLimit, "rate limited", true, cause)
	case status == http.StatusNotFound && strings.Contains(lower, "model"):
		e = NewError(ErrorTypeModel, "model not found", false, cause)
	case status == http.StatusNotFound:
		e = NewError(ErrorTypeEndpoint, "endpoint not found", false, cause)
	case status == http.StatusBadRequest:
		e = NewError(ErrorTypeModel, "request rejected", false, cause)
	case status >= 500:
		e = NewError(ErrorTypeEndpoint, "server error", true, cause)
	default:
		e = NewError(ErrorTypeUnknown, "embedding request failed", false, cause)
	}
	e.StatusCode = status
	return e
}

// GetErrorType extracts the ErrorType from an error chain.
func GetErrorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}
