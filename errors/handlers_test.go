package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "client input logged at warn",
			err:       NewMissingQueryError("req-1", nil),
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "request rejected",
		},
		{
			name:      "generation failure logged at error",
			err:       NewGenerationError("req-1", ReasonTimeout, errors.New("deadline exceeded")),
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "request error",
		},
		{
			name:      "plain error",
			err:       errors.New("boom"),
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			LogError(zap.New(core), tt.err, "req-1")

			entries := logs.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.wantLevel, entries[0].Level)
				assert.Equal(t, tt.wantMsg, entries[0].Message)
				assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
			}
		})
	}
}

func TestLogErrorKeepsCause(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	LogError(zap.New(core), NewGenerationError("req-9", ReasonQuota, errors.New("RESOURCE_EXHAUSTED")), "req-9")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "RESOURCE_EXHAUSTED", entries[0].ContextMap()["cause"])
	}
}
