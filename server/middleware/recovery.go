package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/teilomillet/callbridge/errors"
	"go.uber.org/zap"
)

// Recovery middleware recovers from panics, logs the stack and answers with
// an envelope carrying the fallback text and status 500.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := RequestIDFromContext(r.Context())
				logger.Error("Panic recovered",
					zap.Any("error", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("request_id", requestID),
				)

				errors.WriteError(w, errors.NewInternalError(
					requestID,
					fmt.Errorf("panic: %v", rec),
				))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
