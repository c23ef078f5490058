// Package generative implements the Generative Response Client: given the
// caller's query it makes exactly one call to the configured generative
// backend and returns the generated text or a classified failure.
//
// The client never retries. An optional circuit breaker may short-circuit the
// call while the backend is known to be failing; that still counts as a single
// attempt from the caller's point of view.
package generative

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/teilomillet/callbridge/config"
	"github.com/teilomillet/callbridge/errors"
	"github.com/teilomillet/callbridge/server/circuitbreaker"
	"github.com/teilomillet/callbridge/server/metrics"
	"github.com/teilomillet/callbridge/server/middleware"
	"go.uber.org/zap"
)

var (
	errEmptyResponse = stderrors.New("backend returned empty text")
	errNotConfigured = stderrors.New("generative client not configured")
)

// Backend performs one text-in, text-out call against a generative model.
type Backend interface {
	Generate(ctx context.Context, query string) (string, error)
}

// Client wraps a Backend with timeout, breaker, logging and metrics.
type Client struct {
	backend  Backend
	provider string
	model    string
	timeout  time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for generation records.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink. nil disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithCircuitBreaker puts a breaker in front of the backend when cfg.Enabled.
// Apply it after WithLogger and WithMetrics so the breaker reports through them.
func WithCircuitBreaker(cfg config.CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = circuitbreaker.New(c.provider, cfg, c.logger, c.metrics)
	}
}

// New creates a client around backend. cfg supplies the provider and model
// names used in logs and metrics, and the per-call timeout.
func New(cfg config.LLMConfig, backend Backend, opts ...Option) *Client {
	c := &Client{
		backend:  backend,
		provider: cfg.Provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig resolves the backend named by cfg.LLM and builds a client.
// A missing credential is reported as a ConfigError; callers are expected to
// treat it as fatal.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Client, error) {
	if err := cfg.LLM.RequireCredential(); err != nil {
		return nil, errors.NewConfigError("generative backend credential missing", err)
	}

	var (
		backend Backend
		err     error
	)
	if cfg.LLM.Provider == config.ProviderGemini {
		backend, err = NewGeminiBackend(ctx, cfg.LLM)
	} else {
		backend, err = NewGollmBackend(cfg.LLM)
	}
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("initialize %s backend", cfg.LLM.Provider), err)
	}

	logger.Info("Generative backend ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Duration("timeout", cfg.LLM.Timeout),
		zap.Bool("circuit_breaker", cfg.CircuitBreaker.Enabled),
	)

	return New(cfg.LLM, backend,
		WithLogger(logger),
		WithMetrics(m),
		WithCircuitBreaker(cfg.CircuitBreaker),
	), nil
}

// Generate sends query to the backend once. On failure the returned error is
// a *errors.BridgeError of type GenerationError whose reason classifies the
// cause; the provider error is only reachable through Unwrap.
func (c *Client) Generate(ctx context.Context, query string) (string, error) {
	requestID := middleware.RequestIDFromContext(ctx)
	if c == nil || c.backend == nil {
		return "", errors.NewGenerationError(requestID, errors.ReasonNotConfigured, errNotConfigured)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.call(ctx, query)
	duration := time.Since(start)

	if err != nil {
		reason := classify(err)
		c.metrics.RecordGeneration(c.provider, string(reason), duration)
		c.logger.Debug("Generation failed",
			zap.String("request_id", requestID),
			zap.String("provider", c.provider),
			zap.String("reason", string(reason)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", errors.NewGenerationError(requestID, reason, err)
	}

	c.metrics.RecordGeneration(c.provider, "ok", duration)
	c.logger.Info("Generation completed",
		zap.String("request_id", requestID),
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.String("query", query),
		zap.Int("response_length", len(text)),
		zap.Duration("duration", duration),
	)
	return text, nil
}

func (c *Client) call(ctx context.Context, query string) (string, error) {
	invoke := func() (string, error) {
		text, err := c.backend.Generate(ctx, query)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", errEmptyResponse
		}
		return text, nil
	}

	return c.breaker.Execute(invoke)
}
