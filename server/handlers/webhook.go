// Package handlers provides the HTTP handler for gateway fulfillment calls.
//
// A webhook call moves through four steps: parse the body, extract the query
// text, generate a reply and shape it into a fulfillment envelope. Input
// problems end the request with 400 and a fixed message. Generation problems
// never surface to the caller: the reply becomes the fallback text with 200
// so the conversation can continue.
package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/teilomillet/callbridge/errors"
	"github.com/teilomillet/callbridge/server/fulfillment"
	"github.com/teilomillet/callbridge/server/metrics"
	"github.com/teilomillet/callbridge/server/middleware"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Generator produces reply text for a query. *generative.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, query string) (string, error)
}

// WebhookHandler serves fulfillment requests.
type WebhookHandler struct {
	generator    Generator
	fallbackText string
	maxBodyBytes int64
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// WebhookOption configures a WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithFallbackText replaces the text spoken when generation fails.
func WithFallbackText(text string) WebhookOption {
	return func(h *WebhookHandler) {
		if text != "" {
			h.fallbackText = text
		}
	}
}

// WithMaxBodyBytes limits how much of the body is read. Larger bodies are
// rejected as malformed.
func WithMaxBodyBytes(n int64) WebhookOption {
	return func(h *WebhookHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithMetrics records fulfillment outcomes on m.
func WithMetrics(m *metrics.Metrics) WebhookOption {
	return func(h *WebhookHandler) {
		h.metrics = m
	}
}

// NewWebhookHandler creates a handler backed by generator. A nil generator is
// allowed; every request then receives the fallback text.
func NewWebhookHandler(generator Generator, logger *zap.Logger, opts ...WebhookOption) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebhookHandler{
		generator:    generator,
		fallbackText: errors.FallbackText,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))

	if r.Method != http.MethodPost {
		err := errors.NewError(errors.MalformedRequestError, errors.InvalidRequestText,
			http.StatusMethodNotAllowed, requestID,
			map[string]interface{}{"method": r.Method, "allowed_methods": []string{http.MethodPost}},
			nil)
		w.Header().Set("Allow", http.MethodPost)
		h.reject(w, logger, err, metrics.OutcomeInvalidRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.reject(w, logger, errors.NewMalformedRequestError(requestID, err), metrics.OutcomeInvalidRequest)
		return
	}

	req, err := fulfillment.Decode(body)
	switch {
	case stderrors.Is(err, fulfillment.ErrMalformedRequest):
		h.reject(w, logger, errors.NewMalformedRequestError(requestID, err), metrics.OutcomeInvalidRequest)
		return
	case err != nil:
		h.reject(w, logger, errors.NewMissingQueryError(requestID, err), metrics.OutcomeMissingQuery)
		return
	}

	logger.Debug("Fulfillment request received",
		zap.String("response_id", req.ResponseID),
		zap.String("session", req.Session),
		zap.String("language_code", req.LanguageCode),
		zap.String("intent", req.Intent),
	)

	outcome := metrics.OutcomeSuccess
	text, err := h.generate(r.Context(), req.QueryText)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.NewGenerationError(requestID, errors.ReasonEmptyResponse, nil)
	}
	if err != nil {
		errors.LogError(logger, err, requestID)
		text = h.fallbackText
		outcome = metrics.OutcomeFallback
	}

	h.metrics.RecordFulfillment(outcome)
	if err := fulfillment.Write(w, http.StatusOK, fulfillment.NewEnvelope(text)); err != nil {
		logger.Warn("Failed to write fulfillment response", zap.Error(err))
	}
}

func (h *WebhookHandler) generate(ctx context.Context, query string) (string, error) {
	if h.generator == nil {
		return "", errors.NewGenerationError(middleware.RequestIDFromContext(ctx), errors.ReasonNotConfigured, nil)
	}
	return h.generator.Generate(ctx, query)
}

func (h *WebhookHandler) reject(w http.ResponseWriter, logger *zap.Logger, err *errors.BridgeError, outcome string) {
	errors.LogError(logger, err, err.RequestID)
	h.metrics.RecordFulfillment(outcome)
	errors.WriteError(w, err)
}
