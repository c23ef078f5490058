// Package errors provides the error taxonomy for the callbridge webhook adapter.
// It includes structured error types, envelope-shaped error responses,
// request ID tracking, and integrated logging with Uber's zap logger.
//
// Every error the gateway can observe is written as a fulfillment envelope, so
// the response always carries speakable text even when the status code is not
// 200. Internal detail (the wrapped cause) never reaches the response body; it
// is only logged.
//
// Basic usage:
//
//	// Client input error
//	errors.WriteError(w, errors.NewMalformedRequestError(requestID, err))
//
//	// Backend failure, absorbed by the caller into fallback text
//	err := errors.NewGenerationError(requestID, errors.ReasonTimeout, cause)
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/teilomillet/callbridge/server/fulfillment"
	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// If nil is provided, the function will do nothing to prevent
// accidentally disabling logging.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType represents the categories of errors that can occur while
// fulfilling a webhook call.
type ErrorType string

const (
	// MalformedRequestError: body absent or not decodable as a JSON object
	MalformedRequestError ErrorType = "malformed_request"

	// MissingQueryError: decodable body without usable query text
	MissingQueryError ErrorType = "missing_query"

	// GenerationError: the generative backend call failed for any reason
	GenerationError ErrorType = "generation_failure"

	// ConfigError: the process cannot serve traffic (e.g. missing credential)
	ConfigError ErrorType = "config_error"

	// InternalError represents unexpected internal server errors
	InternalError ErrorType = "internal_error"
)

// Fixed, caller-visible texts.
const (
	InvalidRequestText = "Invalid request"
	MissingQueryText   = "No query_text provided"
	FallbackText       = "I'm sorry, I'm having trouble processing your request right now."
)

// BridgeError is the custom error type used across callbridge. It carries the
// public message written to the gateway and keeps the underlying cause for logs.
type BridgeError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message is the caller-safe text placed in the envelope
	Message string `json:"message"`

	// Code is the HTTP status code
	Code int `json:"-"`

	// RequestID links the error to a specific request
	RequestID string `json:"request_id"`

	// Details contains additional error context for logs
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

// Error implements the error interface. It returns a string that
// combines the error type, an internal summary, and underlying error (if any).
// Generation and internal errors carry caller-facing fallback speech in
// Message, which stays out of the error string.
func (e *BridgeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.summary(), e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.summary())
}

func (e *BridgeError) summary() string {
	switch e.Type {
	case GenerationError:
		if reason := e.Reason(); reason != "" {
			return fmt.Sprintf("backend call failed (reason=%s)", reason)
		}
		return "backend call failed"
	case InternalError:
		return "internal error"
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error.
func (e *BridgeError) Unwrap() error {
	return e.err
}

// Is allows type-based matching with errors.Is while ignoring other fields.
func (e *BridgeError) Is(target error) bool {
	t, ok := target.(*BridgeError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Reason returns the classified failure reason, if one was recorded.
func (e *BridgeError) Reason() Reason {
	if r, ok := e.Details["reason"].(Reason); ok {
		return r
	}
	return ""
}

// WriteError writes err to w as a fulfillment envelope with err.Code.
func WriteError(w http.ResponseWriter, err *BridgeError) {
	text := err.Message
	if text == "" {
		text = FallbackText
	}
	if encErr := fulfillment.Write(w, err.Code, fulfillment.NewEnvelope(text)); encErr != nil {
		DefaultLogger.Warn("failed to write error envelope",
			zap.Error(encErr),
			zap.String("request_id", err.RequestID),
		)
	}
}

// As is a wrapper around errors.As for better error type assertion
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// AsBridgeError extracts a *BridgeError from err's chain.
func AsBridgeError(err error) (*BridgeError, bool) {
	var be *BridgeError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
