package generative

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teilomillet/callbridge/errors"
	"github.com/teilomillet/callbridge/server/circuitbreaker"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net failure" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

var _ net.Error = fakeNetError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.Reason
	}{
		{"breaker open", fmt.Errorf("%w: gemini", circuitbreaker.ErrCircuitOpen), errors.ReasonCircuitOpen},
		{"empty response", errEmptyResponse, errors.ReasonEmptyResponse},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), errors.ReasonTimeout},
		{"canceled", context.Canceled, errors.ReasonCanceled},
		{"net timeout", &net.OpError{Op: "dial", Err: fakeNetError{timeout: true}}, errors.ReasonTimeout},
		{"net refused", fakeNetError{}, errors.ReasonTransport},
		{"quota status", stderrors.New("Error 429, Message: quota exceeded, Status: RESOURCE_EXHAUSTED"), errors.ReasonQuota},
		{"rate limit wording", stderrors.New("anthropic: rate limit reached"), errors.ReasonQuota},
		{"anything else", stderrors.New("Error 500, Status: INTERNAL"), errors.ReasonProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
