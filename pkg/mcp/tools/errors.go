package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

// ErrorResponse is a structured error carried in a tool result so the MCP
// client surfaces it to the model instead of dropping it.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on (bad parameters, missing records).
// System failures should still be returned as Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// ServiceErrorResult converts actionable service errors into error results.
// It returns nil for errors that should propagate as protocol errors.
func ServiceErrorResult(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", logging.SanitizeError(err))
	case errors.Is(err, apperrors.ErrEmbeddingNotConfigured):
		return NewErrorResult("embedding_not_configured", "embedding provider is not configured on this server")
	case errors.Is(err, apperrors.ErrMatchFailed):
		return NewErrorResult("match_failed", "matching is temporarily unavailable, retry later")
	}
	return nil
}
