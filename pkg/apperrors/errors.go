package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingNotConfigured is a configuration error: no embedding provider
	// credentials are available. Not retryable without operator intervention.
	ErrEmbeddingNotConfigured = errors.New("embedding provider not configured")

	ErrIngestionFailed       = errors.New("ingestion failed")
	ErrMatchFailed           = errors.New("matching failed")
	ErrEmailGenerationFailed = errors.New("email generation failed")
	ErrEmailSendFailed       = errors.New("email send failed")
)
