package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, ErrorTypeAuth, false},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403}, ErrorTypeAuth, false},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, ErrorTypeRateLimit, true},
		{"model missing", &openai.APIError{HTTPStatusCode: 404, Message: "The model foo does not exist"}, ErrorTypeModel, false},
		{"endpoint missing", &openai.RequestError{HTTPStatusCode: 404, Err: errors.New("not found")}, ErrorTypeEndpoint, false},
		{"server error", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, ErrorTypeEndpoint, true},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrorTypeEndpoint, true},
		{"refused", errors.New("dial tcp: connection refused"), ErrorTypeEndpoint, true},
		{"other", errors.New("something odd"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.IsRetryable())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_PassesThroughClassified(t *testing.T) {
	orig := NewError(ErrorTypeResponse, "bad", false, nil)
	assert.Same(t, orig, ClassifyError(fmt.Errorf("wrapped: %w", orig)))
	assert.Nil(t, ClassifyError(nil))
}

func TestError_Message(t *testing.T) {
	e := NewError(ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	e.StatusCode = 401
	e.Model = "text-embedding-004"
	assert.Equal(t, "auth_error HTTP 401 model=text-embedding-004 authentication failed: 401", e.Error())
}
