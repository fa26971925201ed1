package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
)

// Config holds configuration for an OpenAI-compatible embedding provider.
type Config struct {
	BaseURL    string // e.g. "https://api.openai.com/v1"
	APIKey     string
	Model      string
	Dimensions int

	// DocumentInstruction and QueryInstruction are prepended to each input of
	// the respective mode.
	DocumentInstruction string
	QueryInstruction    string

	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	CircuitBreaker CircuitBreakerConfig
	HTTPClient     *http.Client // Optional
}

// OpenAIProvider embeds text through an OpenAI-compatible /embeddings endpoint.
type OpenAIProvider struct {
	client  *openai.Client
	cfg     Config
	limiter *RateLimiter
	breaker *CircuitBreaker
	logger  *zap.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider. A missing API key is not an error
// here; Embed reports it as apperrors.ErrEmbeddingNotConfigured.
func NewOpenAIProvider(cfg Config, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CircuitBreaker.Threshold == 0 {
		cfg.CircuitBreaker = DefaultCircuitBreakerConfig()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		breaker: NewCircuitBreaker(cfg.CircuitBreaker),
		logger:  logger.Named("embedding"),
	}, nil
}

// Dimensions returns the configured vector length.
func (p *OpenAIProvider) Dimensions() int {
	return p.cfg.Dimensions
}

// ModelName returns the configured model.
func (p *OpenAIProvider) ModelName() string {
	return p.cfg.Model
}

// Embed embeds all texts in one request.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, apperrors.ErrEmbeddingNotConfigured
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown embedding mode %q", mode)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, ClassifyError(err)
	}
	if err := p.breaker.Allow(); err != nil {
		return nil, NewError(ErrorTypeEndpoint, "provider unavailable", true, err)
	}

	inputs := make([]string, len(texts))
	prefix := p.instruction(mode)
	for i, t := range texts {
		inputs[i] = prefix + t
	}

	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.cfg.Model),
		Input:      inputs,
		Dimensions: p.cfg.Dimensions,
	})
	if err != nil {
		classified := ClassifyError(err)
		if classified.Type == ErrorTypeRateLimit {
			p.limiter.RecordRateLimitError(0)
		}
		p.breaker.RecordFailure()
		p.logger.Warn("Embedding request failed",
			zap.String("model", p.cfg.Model),
			zap.String("mode", string(mode)),
			zap.Int("inputs", len(inputs)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error_type", string(classified.Type)),
			zap.Error(err))
		return nil, classified
	}

	vectors, err := p.collect(resp, len(texts))
	if err != nil {
		p.breaker.RecordFailure()
		return nil, err
	}
	p.breaker.RecordSuccess()

	p.logger.Debug("Embedding request completed",
		zap.String("mode", string(mode)),
		zap.Int("inputs", len(inputs)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Duration("elapsed", time.Since(start)))

	return vectors, nil
}

func (p *OpenAIProvider) instruction(mode Mode) string {
	if mode == ModeQuery {
		return p.cfg.QueryInstruction
	}
	return p.cfg.DocumentInstruction
}

// collect orders response items by index and validates their shape.
func (p *OpenAIProvider) collect(resp openai.EmbeddingResponse, want int) ([][]float32, error) {
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}

	if err := checkVectors(vectors, want, p.cfg.Dimensions); err != nil {
		e := NewError(ErrorTypeResponse, "unexpected embedding response", false, err)
		e.Model = p.cfg.Model
		return nil, e
	}
	return vectors, nil
}

// IsNotConfigured reports whether err means no credentials are available.
func IsNotConfigured(err error) bool {
	return errors.Is(err, apperrors.ErrEmbeddingNotConfigured)
}
