package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "callbridge "+Version+"\n", stdout.String())
}

func TestRunValidate(t *testing.T) {
	clearCredentials(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-validate"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Configuration is valid")
}

func TestRunValidateMissingCredential(t *testing.T) {
	clearCredentials(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-validate"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "GOOGLE_API_KEY")
}

func TestRunValidateBadConfig(t *testing.T) {
	clearCredentials(t)
	path := filepath.Join(t.TempDir(), "callbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fulfillment:\n  path: webhook\n"), 0o600))
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-config", path, "-validate"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Failed to load config")
}

func TestRunFailsFastWithoutCredential(t *testing.T) {
	clearCredentials(t)
	path := filepath.Join(t.TempDir(), "callbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o600))
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-config", path}, &stdout, &stderr)

	assert.Equal(t, 1, code)
}

func TestRunUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-nope"}, &stdout, &stderr)

	assert.Equal(t, 2, code)
}
