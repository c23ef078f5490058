package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvironmentVariableExpansion tests ${VAR} expansion inside the YAML file
func TestEnvironmentVariableExpansion(t *testing.T) {
	clearEnv(t)

	testCases := []struct {
		name       string
		envVars    map[string]string
		yamlConfig string
		validate   func(*testing.T, *Config)
	}{
		{
			name: "basic env var expansion",
			envVars: map[string]string{
				"CB_KEY": "test-key-123",
			},
			yamlConfig: `
llm:
    api_key: ${CB_KEY}`,
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, "test-key-123", c.LLM.APIKey)
			},
		},
		{
			name:    "missing env var",
			envVars: map[string]string{},
			yamlConfig: `
llm:
    api_key: ${CB_MISSING_KEY}`,
			validate: func(t *testing.T, c *Config) {
				assert.Empty(t, c.LLM.APIKey)
			},
		},
		{
			name:    "default value syntax",
			envVars: map[string]string{},
			yamlConfig: `
llm:
    model: ${CB_MODEL:-gemini-1.5-flash}`,
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, "gemini-1.5-flash", c.LLM.Model)
			},
		},
		{
			name: "multiple env vars in single value",
			envVars: map[string]string{
				"CB_HOST":    "generativelanguage.googleapis.com",
				"CB_VERSION": "v1beta",
			},
			yamlConfig: `
llm:
    endpoint: https://${CB_HOST}/${CB_VERSION}`,
			validate: func(t *testing.T, c *Config) {
				assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", c.LLM.Endpoint)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			config, err := Load(strings.NewReader(tc.yamlConfig))
			require.NoError(t, err)
			tc.validate(t, config)
		})
	}
}

// TestCredentialFromEnvironment tests how the credential is resolved when the
// file does not carry one.
func TestCredentialFromEnvironment(t *testing.T) {
	testCases := []struct {
		name       string
		envVars    map[string]string
		yamlConfig string
		want       string
	}{
		{
			name:    "google key for gemini",
			envVars: map[string]string{EnvGoogleAPIKey: "google-key"},
			want:    "google-key",
		},
		{
			name:    "gemini key as second choice",
			envVars: map[string]string{EnvGeminiAPIKey: "gemini-key"},
			want:    "gemini-key",
		},
		{
			name:    "google key wins over gemini key",
			envVars: map[string]string{EnvGoogleAPIKey: "google-key", EnvGeminiAPIKey: "gemini-key"},
			want:    "google-key",
		},
		{
			name:       "file value wins over environment",
			envVars:    map[string]string{EnvGoogleAPIKey: "google-key"},
			yamlConfig: "llm:\n  api_key: file-key\n",
			want:       "file-key",
		},
		{
			name:       "provider-named key for gollm providers",
			envVars:    map[string]string{"OPENAI_API_KEY": "openai-key", EnvGoogleAPIKey: "google-key"},
			yamlConfig: "llm:\n  provider: openai\n  model: gpt-4o-mini\n",
			want:       "openai-key",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			config, err := Load(strings.NewReader(tc.yamlConfig))
			require.NoError(t, err)
			assert.Equal(t, tc.want, config.LLM.APIKey)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "gemini-2.5-flash")
	t.Setenv(EnvPort, "9191")

	config, err := Load(strings.NewReader("llm:\n  model: gemini-1.5-flash\nserver:\n  port: 8081\n"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", config.LLM.Model)
	assert.Equal(t, 9191, config.Server.Port)
}

func TestInvalidPortFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "eighty")

	_, err := Load(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid PORT")
}

func TestConfigFileReloadSeesNewEnvironment(t *testing.T) {
	clearEnv(t)

	configPath := filepath.Join(t.TempDir(), "callbridge.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  api_key: ${CB_RELOAD_KEY}\n"), 0o644))

	t.Setenv("CB_RELOAD_KEY", "initial-key")
	config, err := LoadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "initial-key", config.LLM.APIKey)

	t.Setenv("CB_RELOAD_KEY", "new-key")
	config, err = LoadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "new-key", config.LLM.APIKey)
}
