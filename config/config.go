// Package config provides configuration management for the callbridge webhook
// adapter. Configuration is read once at process start, from an optional YAML
// file layered over defaults and then over a small set of environment
// variables, and is passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	bridgeerrors "github.com/teilomillet/callbridge/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted after the file is decoded.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvModel        = "LLM_MODEL"
	EnvPort         = "PORT"
)

// ProviderGemini selects the native Gemini backend. Any other provider name is
// handed to gollm.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config represents the complete service configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	LLM            LLMConfig            `yaml:"llm"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Fulfillment    FulfillmentConfig    `yaml:"fulfillment"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServerConfig holds server-specific configuration for the HTTP server.
type ServerConfig struct {
	// Port specifies the HTTP server port (default: 8080)
	Port int `yaml:"port" validate:"gte=0,lte=65535"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must leave room for the generation call (default: 45s)
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values (default: 1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// MaxBodyBytes caps the webhook body; larger bodies are rejected as
	// malformed (default: 1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"gt=0"`

	// ShutdownTimeout specifies how long to wait for in-flight calls to
	// finish on shutdown (default: 10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// LLMConfig selects and parameterizes the generative backend.
type LLMConfig struct {
	// Provider is "gemini" (default) or any provider gollm supports
	// (e.g. "openai", "anthropic", "ollama")
	Provider string `yaml:"provider" validate:"required"`

	// Model is the fixed model identity used for every call
	Model string `yaml:"model" validate:"required"`

	// APIKey is the provider credential. Prefer ${GOOGLE_API_KEY} in the file
	// or leave it empty and set the environment variable.
	APIKey string `yaml:"api_key"`

	// Endpoint overrides the provider base URL (optional). Only gemini and
	// ollama accept it.
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`

	// SystemPrompt is sent as system instruction with each call (optional)
	SystemPrompt string `yaml:"system_prompt"`

	// Timeout bounds a single generation call; 0 leaves only the HTTP
	// client's own limits in place (default: 30s)
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// CircuitBreakerConfig configures the optional breaker in front of the
// backend. When open, calls fail immediately and the caller gets fallback text.
type CircuitBreakerConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxRequests is the number of requests allowed through while half-open
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval is the cyclic period of the closed state for clearing counts
	Interval time.Duration `yaml:"interval" validate:"gte=0"`

	// Timeout is the period of the open state until it becomes half-open
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// FailureThreshold is the number of consecutive failures that trips the circuit
	FailureThreshold uint32 `yaml:"failure_threshold" validate:"required_if=Enabled true"`
}

// FulfillmentConfig holds webhook-facing settings.
type FulfillmentConfig struct {
	// Path is the route the gateway posts to (default: /webhook)
	Path string `yaml:"path" validate:"required,startswith=/"`

	// FallbackText is spoken when generation fails
	FallbackText string `yaml:"fallback_text" validate:"required,notblank"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	// Level sets logging verbosity: debug, info, warn, error
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format specifies log output format: json or text
	Format string `yaml:"format" validate:"oneof=json text"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    45 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider: ProviderGemini,
			Model:    "gemini-2.0-flash",
			Timeout:  30 * time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          false,
			MaxRequests:      1,
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Fulfillment: FulfillmentConfig{
			Path:         "/webhook",
			FallbackText: bridgeerrors.FallbackText,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile loads configuration from a YAML file
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// LoadOptional loads filename if it exists and falls back to defaults plus
// environment otherwise. An empty filename always means defaults.
func LoadOptional(filename string) (*Config, error) {
	if filename != "" {
		cfg, err := LoadFile(filename)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	return Load(strings.NewReader(""))
}

// expandEnvVars resolves ${VAR} and ${VAR:-default} references. Unset
// variables expand to the empty string.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if i := strings.Index(key, ":-"); i >= 0 {
			if val := os.Getenv(key[:i]); val != "" {
				return val
			}
			return key[i+2:]
		}
		return os.Getenv(key)
	})
}

// Load loads configuration from an io.Reader. An empty reader yields the
// defaults with environment overrides applied.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()

	// Decode YAML on top of defaults
	if expanded := expandEnvVars(string(data)); strings.TrimSpace(expanded) != "" {
		dec := yaml.NewDecoder(strings.NewReader(expanded))
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// applyEnv fills the credential from the environment when the file left it
// empty, and lets LLM_MODEL and PORT override the file.
func (c *Config) applyEnv() error {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = credentialFromEnv(c.LLM.Provider)
	}
	if model := os.Getenv(EnvModel); model != "" {
		c.LLM.Model = model
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, port, err)
		}
		c.Server.Port = p
	}
	return nil
}

func credentialFromEnv(provider string) string {
	if provider == ProviderGemini {
		if key := os.Getenv(EnvGoogleAPIKey); key != "" {
			return key
		}
		return os.Getenv(EnvGeminiAPIKey)
	}
	return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid. It does not require the
// credential; see RequireCredential.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return structError(err)
	}

	if c.LLM.Endpoint != "" && c.LLM.Provider != ProviderGemini && c.LLM.Provider != ProviderOllama {
		return fmt.Errorf("invalid llm.endpoint: provider %q does not support a custom endpoint", c.LLM.Provider)
	}
	return nil
}

func structError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("invalid %s: %v violates %q", field, fe.Value(), constraint(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// RequireCredential reports whether the selected provider has the credential
// it needs. Ollama runs locally and needs none.
func (l LLMConfig) RequireCredential() error {
	if l.APIKey != "" || l.Provider == ProviderOllama {
		return nil
	}
	if l.Provider == ProviderGemini {
		return fmt.Errorf("no API key for provider %q: set llm.api_key or %s", l.Provider, EnvGoogleAPIKey)
	}
	return fmt.Errorf("no API key for provider %q: set llm.api_key or %s_API_KEY", l.Provider, strings.ToUpper(l.Provider))
}

// Logger builds the process logger described by the logging section.
func (l LoggingConfig) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if l.Format == "text" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
