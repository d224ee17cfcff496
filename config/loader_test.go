package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Voice.ConfidenceAcceptanceThreshold)
	assert.Equal(t, 2, cfg.Voice.MaxFailuresBeforeFallback)
	assert.Equal(t, 30, cfg.Voice.SessionTimeoutMinutes)
	assert.Equal(t, "en", cfg.Voice.DefaultLanguage)
	assert.Len(t, cfg.Voice.SupportedLanguages, 8)
	assert.True(t, cfg.Voice.PreferLightweightSynthesis)

	assert.Equal(t, "whisper", cfg.Recognition.Primary.Name)
	assert.Equal(t, "vosk", cfg.Recognition.Fallback.Name)
	assert.Equal(t, "espeak", cfg.Synthesis.Lightweight.Name)
	assert.Equal(t, "elevenlabs", cfg.Synthesis.Rich.Name)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := `
voice:
  confidence_acceptance_threshold: 0.65
  max_failures_before_fallback: 3
  default_language: hi
  compression_enabled: false
recognition:
  primary:
    name: whisper-selfhosted
    base_url: http://whisper.internal:9000
    timeout: 45s
log:
  level: debug
  format: console
`
	path := filepath.Join(t.TempDir(), "voice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.65, cfg.Voice.ConfidenceAcceptanceThreshold)
	assert.Equal(t, 3, cfg.Voice.MaxFailuresBeforeFallback)
	assert.Equal(t, "hi", cfg.Voice.DefaultLanguage)
	assert.False(t, cfg.Voice.CompressionEnabled)

	assert.Equal(t, "whisper-selfhosted", cfg.Recognition.Primary.Name)
	assert.Equal(t, "http://whisper.internal:9000", cfg.Recognition.Primary.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Recognition.Primary.Timeout)

	// 未覆盖的键保留默认值
	assert.Equal(t, 30, cfg.Voice.SessionTimeoutMinutes)
	assert.Equal(t, "vosk", cfg.Recognition.Fallback.Name)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/voice.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Voice.DefaultLanguage)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voice: [not a map"), 0o600))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SAHAAY_VOICE_DEFAULT_LANGUAGE", "ta")
	t.Setenv("SAHAAY_VOICE_CONFIDENCE_ACCEPTANCE_THRESHOLD", "0.9")
	t.Setenv("SAHAAY_VOICE_COMPRESSION_ENABLED", "false")
	t.Setenv("SAHAAY_VOICE_SUPPORTED_LANGUAGES", "en, ta")
	t.Setenv("SAHAAY_RECOGNITION_PRIMARY_API_KEY", "sk-test")
	t.Setenv("SAHAAY_RECOGNITION_PRIMARY_TIMEOUT", "90s")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "ta", cfg.Voice.DefaultLanguage)
	assert.Equal(t, 0.9, cfg.Voice.ConfidenceAcceptanceThreshold)
	assert.False(t, cfg.Voice.CompressionEnabled)
	assert.Equal(t, []string{"en", "ta"}, cfg.Voice.SupportedLanguages)
	assert.Equal(t, "sk-test", cfg.Recognition.Primary.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Recognition.Primary.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := "voice:\n  default_language: hi\n"
	path := filepath.Join(t.TempDir(), "voice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SAHAAY_VOICE_DEFAULT_LANGUAGE", "bn")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "bn", cfg.Voice.DefaultLanguage)
}

func TestLoad_CustomValidator(t *testing.T) {
	sentinel := errors.New("api key required")

	_, err := NewLoader().
		WithValidator(func(cfg *Config) error {
			if cfg.Recognition.Primary.APIKey == "" {
				return sentinel
			}
			return nil
		}).
		Load()

	assert.ErrorIs(t, err, sentinel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "threshold too high", mutate: func(c *Config) { c.Voice.ConfidenceAcceptanceThreshold = 1.5 }, wantErr: true},
		{name: "threshold negative", mutate: func(c *Config) { c.Voice.ConfidenceAcceptanceThreshold = -0.1 }, wantErr: true},
		{name: "zero max failures", mutate: func(c *Config) { c.Voice.MaxFailuresBeforeFallback = 0 }, wantErr: true},
		{name: "zero session timeout", mutate: func(c *Config) { c.Voice.SessionTimeoutMinutes = 0 }, wantErr: true},
		{name: "missing default language", mutate: func(c *Config) { c.Voice.DefaultLanguage = "" }, wantErr: true},
		{name: "min exceeds max payload", mutate: func(c *Config) {
			c.Audio.MinPayloadBytes = 10 << 20
			c.Audio.MaxPayloadBytes = 1 << 20
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
