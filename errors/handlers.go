package errors

import (
	"go.uber.org/zap"
)

// LogError logs an error with its context. Client input errors are logged at
// warn level; everything else at error level with the underlying cause.
func LogError(logger *zap.Logger, err error, requestID string) {
	bridgeErr, ok := AsBridgeError(err)
	if !ok {
		logger.Error("unexpected error",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		return
	}

	fields := []zap.Field{
		zap.String("error_type", string(bridgeErr.Type)),
		zap.Int("code", bridgeErr.Code),
		zap.String("request_id", requestID),
	}
	if bridgeErr.err != nil {
		fields = append(fields, zap.NamedError("cause", bridgeErr.err))
	}
	if len(bridgeErr.Details) > 0 {
		fields = append(fields, zap.Any("details", bridgeErr.Details))
	}

	switch bridgeErr.Type {
	case MalformedRequestError, MissingQueryError:
		logger.Warn("request rejected", fields...)
	default:
		logger.Error("request error", fields...)
	}
}
