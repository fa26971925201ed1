package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the optional YAML file read from the working directory.
const ConfigFile = "config.yaml"

// Config holds all configuration for coldconnect-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys, tokens) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Auth            AuthConfig            `yaml:"auth"`
	Database        DatabaseConfig        `yaml:"database"`
	Embedding       EmbeddingConfig       `yaml:"embedding"`
	Matching        MatchingConfig        `yaml:"matching"`
	EmailGeneration EmailGenerationConfig `yaml:"email_generation"`
	GitHub          GitHubConfig          `yaml:"github"`
	Resume          ResumeConfig          `yaml:"resume"`
	MCP             MCPConfig             `yaml:"mcp"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"coldconnect"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"coldconnect"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
// Gemini, OpenAI, Ollama and vLLM all expose /embeddings in this shape.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url" env:"EMBEDDING_BASE_URL" env-default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	APIKey     string `yaml:"-" env:"EMBEDDING_API_KEY"` // Secret - not in YAML
	Model      string `yaml:"model" env:"EMBEDDING_MODEL" env-default:"text-embedding-004"`
	Dimensions int    `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS" env-default:"768"`

	// DocumentInstruction and QueryInstruction are prepended to every input of
	// the respective mode. Both modes use the same model.
	DocumentInstruction string `yaml:"document_instruction" env:"EMBEDDING_DOCUMENT_INSTRUCTION" env-default:"search_document: "`
	QueryInstruction    string `yaml:"query_instruction" env:"EMBEDDING_QUERY_INSTRUCTION" env-default:"search_query: "`

	Timeout           time.Duration `yaml:"timeout" env:"EMBEDDING_TIMEOUT" env-default:"30s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"EMBEDDING_REQUESTS_PER_SECOND" env-default:"5"`
	Burst             int           `yaml:"burst" env:"EMBEDDING_BURST" env-default:"10"`
}

// HasCredentials reports whether an API key was provided.
func (c *EmbeddingConfig) HasCredentials() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// MatchingConfig holds the tunables of project matching.
//
// TopK trades recall against latency and cost. Owner filtering happens after
// the global top-K retrieval, so a small TopK in a crowded index can hide an
// owner's relevant chunks behind other owners' chunks. Threshold trades
// precision against recall; a project scoring exactly at the threshold is
// excluded.
type MatchingConfig struct {
	TopK      int     `yaml:"top_k" env:"MATCH_TOP_K" env-default:"15"`
	Threshold float64 `yaml:"threshold" env:"MATCH_THRESHOLD" env-default:"0.5"`
	// Index selects the vector index backend: "pgvector" or "memory".
	Index string `yaml:"index" env:"MATCH_INDEX" env-default:"pgvector"`
}

// Email generator providers.
const (
	EmailProviderRemote    = "remote"
	EmailProviderOpenAI    = "openai"
	EmailProviderAnthropic = "anthropic"
)

// EmailGenerationConfig selects and configures the outreach email generator.
type EmailGenerationConfig struct {
	Provider   string        `yaml:"provider" env:"EMAIL_GENERATION_PROVIDER" env-default:"remote"`
	ServiceURL string        `yaml:"service_url" env:"EMAIL_GENERATION_SERVICE_URL" env-default:"http://localhost:8900"`
	Timeout    time.Duration `yaml:"timeout" env:"EMAIL_GENERATION_TIMEOUT" env-default:"60s"`

	LLMBaseURL string `yaml:"llm_base_url" env:"LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	LLMModel   string `yaml:"llm_model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	LLMAPIKey  string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	AnthropicModel  string `yaml:"anthropic_model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-5-20250929"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// GitHubConfig holds GitHub import configuration.
type GitHubConfig struct {
	Token           string `yaml:"-" env:"GITHUB_TOKEN"` // Optional; raises the API rate limit
	MaxConcurrent   int    `yaml:"max_concurrent" env:"GITHUB_IMPORT_MAX_CONCURRENT" env-default:"4"`
	ReadmePreview   int    `yaml:"readme_preview" env:"GITHUB_README_PREVIEW" env-default:"500"`
	MaxRepositories int    `yaml:"max_repositories" env:"GITHUB_MAX_REPOSITORIES" env-default:"100"`
}

// ResumeConfig holds résumé upload limits.
type ResumeConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"RESUME_MAX_UPLOAD_BYTES" env-default:"5242880"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// When config.yaml does not exist, configuration comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", ConfigFile, err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// Validate checks value ranges that cleanenv cannot express.
// Missing embedding credentials are not checked here: the serve command
// treats them as fatal, while migrate and version do not need them.
func (c *Config) Validate() error {
	if c.Matching.TopK < 1 {
		return fmt.Errorf("matching.top_k must be at least 1, got %d", c.Matching.TopK)
	}
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 1 {
		return fmt.Errorf("matching.threshold must be within [0, 1], got %v", c.Matching.Threshold)
	}
	switch c.Matching.Index {
	case "pgvector", "memory":
	default:
		return fmt.Errorf("matching.index must be pgvector or memory, got %q", c.Matching.Index)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.EmailGeneration.Provider {
	case EmailProviderRemote, EmailProviderOpenAI, EmailProviderAnthropic:
	default:
		return fmt.Errorf("unknown email_generation.provider %q", c.EmailGeneration.Provider)
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the database as a postgres:// URL, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}
