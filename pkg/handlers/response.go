package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// OwnerMiddleware wraps a handler with an owner-scoped database connection.
type OwnerMiddleware func(http.HandlerFunc) http.HandlerFunc

// ApiResponse is the envelope for successful responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any, logger *zap.Logger) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string, logger *zap.Logger) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperrors.ErrEmbeddingNotConfigured):
		return http.StatusServiceUnavailable, "embedding_not_configured"
	case errors.Is(err, apperrors.ErrIngestionFailed):
		return http.StatusBadGateway, "ingestion_failed"
	case errors.Is(err, apperrors.ErrMatchFailed):
		return http.StatusBadGateway, "match_failed"
	case errors.Is(err, apperrors.ErrEmailGenerationFailed):
		return http.StatusBadGateway, "email_generation_failed"
	case errors.Is(err, apperrors.ErrEmailSendFailed):
		return http.StatusBadGateway, "email_send_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError logs err and writes the mapped error response. Server
// errors get a generic message; client errors carry the sanitized cause.
func writeServiceError(w http.ResponseWriter, err error, action string, logger *zap.Logger) {
	status, code := errorStatus(err)

	message := logging.SanitizeError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("action", action),
			zap.String("error", message))
		message = fmt.Sprintf("Failed to %s", action)
	}
	if status == http.StatusServiceUnavailable {
		message = "Embedding provider is not configured"
	}

	writeError(w, status, code, message, logger)
}

// requireOwner returns the authenticated owner or writes 401.
func requireOwner(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.OwnerID, bool) {
	owner, err := auth.OwnerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", logger)
		return models.OwnerID{}, false
	}
	return owner, true
}

// decodeJSON decodes a bounded JSON body into dst or writes 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", logger)
		return false
	}
	return true
}
