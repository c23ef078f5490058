package generative

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/teilomillet/callbridge/errors"
	"github.com/teilomillet/callbridge/server/circuitbreaker"
)

// quotaMarkers are substrings providers use for quota and rate-limit errors.
var quotaMarkers = []string{"429", "resource_exhausted", "quota", "rate limit", "rate_limit"}

// classify maps a backend error to a failure reason.
func classify(err error) errors.Reason {
	switch {
	case stderrors.Is(err, circuitbreaker.ErrCircuitOpen):
		return errors.ReasonCircuitOpen
	case stderrors.Is(err, errEmptyResponse):
		return errors.ReasonEmptyResponse
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ReasonTimeout
	case stderrors.Is(err, context.Canceled):
		return errors.ReasonCanceled
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.ReasonTimeout
		}
		return errors.ReasonTransport
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return errors.ReasonQuota
		}
	}

	return errors.ReasonProvider
}
