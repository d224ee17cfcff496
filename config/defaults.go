// =============================================================================
// 📦 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Voice:       DefaultVoiceConfig(),
		Audio:       DefaultAudioConfig(),
		Recognition: DefaultRecognitionConfig(),
		Synthesis:   DefaultSynthesisConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
	}
}

// DefaultVoiceConfig 返回默认编排策略配置
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		PreferLightweightSynthesis:    true,
		EnableRichSynthesis:           true,
		FallbackToOfflineRecognition:  true,
		ConfidenceAcceptanceThreshold: 0.8,
		MaxFailuresBeforeFallback:     2,
		SessionTimeoutMinutes:         30,
		CompressionEnabled:            true,
		DefaultLanguage:               "en",
		SupportedLanguages: []string{
			"en", "hi", "ta", "te", "bn", "mr", "kn", "gu",
		},
	}
}

// DefaultAudioConfig 返回默认音频适配器配置
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		MinPayloadBytes: 100,
		MaxPayloadBytes: 5 << 20,
		Formats:         []string{"wav", "mp3", "ogg", "opus", "pcm", "webm", "flac"},
	}
}

// DefaultRecognitionConfig 返回默认识别后端配置
func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		Primary: BackendConfig{
			Name:    "whisper",
			BaseURL: "https://api.openai.com",
			Model:   "whisper-1",
			Timeout: 120 * time.Second,
		},
		Fallback: BackendConfig{
			Name:    "vosk",
			BaseURL: "http://localhost:2700",
			Timeout: 30 * time.Second,
			// 离线后端通常只覆盖部分语言
			Languages: []string{"en", "hi"},
		},
	}
}

// DefaultSynthesisConfig 返回默认合成后端配置
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		Lightweight: BackendConfig{
			Name:    "espeak",
			BaseURL: "http://localhost:5500",
			Timeout: 30 * time.Second,
			Languages: []string{
				"en", "hi", "ta", "te", "bn", "mr", "kn", "gu",
			},
		},
		Rich: BackendConfig{
			Name:    "elevenlabs",
			BaseURL: "https://api.elevenlabs.io",
			Model:   "eleven_multilingual_v2",
			Timeout: 60 * time.Second,
		},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "sahaay-voice",
		SampleRate:   1.0,
	}
}
