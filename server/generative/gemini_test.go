package generative

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/callbridge/config"
	"github.com/teilomillet/callbridge/errors"
)

func newGeminiTestServer(t *testing.T, status int, body string, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			*seen = append(*seen, r.URL.Path, string(data))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func geminiConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Provider: config.ProviderGemini,
		Model:    "gemini-2.0-flash",
		APIKey:   "test-key",
		Endpoint: endpoint,
	}
}

func TestGeminiBackendGenerate(t *testing.T) {
	var seen []string
	srv := newGeminiTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"I'm doing well, thanks!"}]}}]}`, &seen)

	backend, err := NewGeminiBackend(context.Background(), geminiConfig(srv.URL))
	require.NoError(t, err)

	text, err := backend.Generate(context.Background(), "Hello, how are you?")
	require.NoError(t, err)
	assert.Equal(t, "I'm doing well, thanks!", text)

	require.Len(t, seen, 2)
	assert.True(t, strings.HasSuffix(seen[0], "models/gemini-2.0-flash:generateContent"), seen[0])

	var payload struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal([]byte(seen[1]), &payload))
	require.Len(t, payload.Contents, 1)
	require.Len(t, payload.Contents[0].Parts, 1)
	assert.Equal(t, "Hello, how are you?", payload.Contents[0].Parts[0].Text)
}

func TestGeminiBackendQuotaIsClassified(t *testing.T) {
	srv := newGeminiTestServer(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`, nil)

	backend, err := NewGeminiBackend(context.Background(), geminiConfig(srv.URL))
	require.NoError(t, err)

	client := New(geminiConfig(srv.URL), backend)
	text, err := client.Generate(context.Background(), "hello")

	assert.Empty(t, text)
	bridgeErr, ok := errors.AsBridgeError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonQuota, bridgeErr.Reason())
}

func TestGeminiBackendNoCandidatesIsEmptyResponse(t *testing.T) {
	srv := newGeminiTestServer(t, http.StatusOK, `{"candidates":[]}`, nil)

	backend, err := NewGeminiBackend(context.Background(), geminiConfig(srv.URL))
	require.NoError(t, err)

	client := New(geminiConfig(srv.URL), backend)
	_, err = client.Generate(context.Background(), "hello")

	bridgeErr, ok := errors.AsBridgeError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonEmptyResponse, bridgeErr.Reason())
}

func TestGeminiBackendSystemPrompt(t *testing.T) {
	cfg := geminiConfig("http://127.0.0.1:0")
	cfg.SystemPrompt = "Answer in one sentence."

	backend, err := NewGeminiBackend(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, backend.config)
	require.NotNil(t, backend.config.SystemInstruction)
	assert.Equal(t, "Answer in one sentence.", backend.config.SystemInstruction.Parts[0].Text)
}
