package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/nutrilens/internal/vision"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NUTRILENS_ENV", "NUTRILENS_PROVIDER", "NUTRILENS_API_KEY", "NUTRILENS_MODEL",
		"NUTRILENS_BASE_URL", "NUTRILENS_PORT", "NUTRILENS_REQUESTS_PER_MINUTE",
		"NUTRILENS_MAX_IMAGE_DIMENSION", "NUTRILENS_PROVIDER_TIMEOUT", "NUTRILENS_FALLBACK",
		"NUTRILENS_MAX_UPLOAD_BYTES", "NUTRILENS_LOG_LEVEL", "NUTRILENS_LOG_FORMAT",
		"GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutrilens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mock", cfg.Provider.Kind)
	assert.True(t, cfg.Fallback.Enabled)
	assert.Equal(t, 1568, cfg.Image.MaxDimension)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
env: production
http:
  port: 9090
  max_upload_bytes: 2048
provider:
  kind: openai
  api_key: sk-file
  model: gpt-4o
  timeout: 15s
  requests_per_minute: 30
fallback:
  enabled: false
log:
  format: json
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, int64(2048), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, "openai", cfg.Provider.Kind)
	assert.Equal(t, "sk-file", cfg.Provider.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 30, cfg.Provider.RequestsPerMinute)
	assert.False(t, cfg.Fallback.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "provider:\n  kind: google\n  api_key: from-file\n")
	t.Setenv("NUTRILENS_API_KEY", "from-env")
	t.Setenv("NUTRILENS_PORT", "7000")
	t.Setenv("NUTRILENS_PROVIDER_TIMEOUT", "5s")
	t.Setenv("NUTRILENS_FALLBACK", "false")
	t.Setenv("NUTRILENS_MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.False(t, cfg.Fallback.Enabled)
	assert.Equal(t, int64(1024), cfg.HTTP.MaxUploadBytes)
}

func TestLoad_ProviderKeyVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("NUTRILENS_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.Provider.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"NUTRILENS_PORT": "eighty"}, "NUTRILENS_PORT"},
		{"bad timeout", map[string]string{"NUTRILENS_PROVIDER_TIMEOUT": "soon"}, "NUTRILENS_PROVIDER_TIMEOUT"},
		{"bad bool", map[string]string{"NUTRILENS_FALLBACK": "maybe"}, "NUTRILENS_FALLBACK"},
		{"unknown provider", map[string]string{"NUTRILENS_PROVIDER": "watson"}, "unknown provider"},
		{"unknown env", map[string]string{"NUTRILENS_ENV": "staging"}, "invalid env"},
		{"production without key", map[string]string{"NUTRILENS_ENV": "production", "NUTRILENS_PROVIDER": "google"}, "requires an API key"},
		{"bad log format", map[string]string{"NUTRILENS_LOG_FORMAT": "xml"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVisionOptions(t *testing.T) {
	cfg := Default()
	cfg.Provider.Kind = "google"
	cfg.Provider.APIKey = "k"
	cfg.Provider.RequestsPerMinute = 12

	opts := cfg.VisionOptions()
	assert.Equal(t, vision.KindGoogle, opts.Kind)
	assert.Equal(t, "k", opts.APIKey)
	assert.Equal(t, 12, opts.RequestsPerMinute)
	assert.True(t, opts.AllowMockWithoutKey)

	cfg.Env = EnvProduction
	assert.False(t, cfg.VisionOptions().AllowMockWithoutKey)
}
