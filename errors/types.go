package errors

import (
	"net/http"
)

// Reason classifies why a generation failed. It is kept in Details and used
// as a metrics label; it is never shown to the caller.
type Reason string

const (
	ReasonTimeout       Reason = "timeout"
	ReasonCanceled      Reason = "canceled"
	ReasonQuota         Reason = "quota"
	ReasonTransport     Reason = "transport"
	ReasonProvider      Reason = "provider"
	ReasonEmptyResponse Reason = "empty_response"
	ReasonCircuitOpen   Reason = "circuit_open"
	ReasonNotConfigured Reason = "not_configured"
)

// NewError creates a new BridgeError with the given parameters.
// For most cases, use one of the specialized constructors below.
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *BridgeError {
	return &BridgeError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewMalformedRequestError is returned when the webhook body cannot be
// decoded as a JSON object.
func NewMalformedRequestError(requestID string, err error) *BridgeError {
	return &BridgeError{
		Type:      MalformedRequestError,
		Message:   InvalidRequestText,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		err:       err,
	}
}

// NewMissingQueryError is returned when queryResult.queryText is absent,
// not a string, or blank.
func NewMissingQueryError(requestID string, err error) *BridgeError {
	return &BridgeError{
		Type:      MissingQueryError,
		Message:   MissingQueryText,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		err:       err,
	}
}

// NewGenerationError wraps a backend failure. The code is 200 because the
// handler answers with fallback text instead of an HTTP error.
//
// Example:
//
//	err := NewGenerationError("req_123", ReasonQuota, apiErr)
func NewGenerationError(requestID string, reason Reason, err error) *BridgeError {
	return &BridgeError{
		Type:      GenerationError,
		Message:   FallbackText,
		Code:      http.StatusOK,
		RequestID: requestID,
		Details: map[string]interface{}{
			"reason": reason,
		},
		err: err,
	}
}

// NewConfigError reports a configuration problem that prevents serving.
func NewConfigError(message string, err error) *BridgeError {
	return &BridgeError{
		Type:    ConfigError,
		Message: message,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewInternalError creates an internal server error, used for recovered panics.
func NewInternalError(requestID string, err error) *BridgeError {
	return &BridgeError{
		Type:      InternalError,
		Message:   FallbackText,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
