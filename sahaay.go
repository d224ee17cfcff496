// Package sahaay provides a top-level convenience entry point for creating
// a voice orchestrator with minimal boilerplate.
//
// Usage:
//
//	import sahaay "github.com/Aravindh9652/sahaay-ai-hackathon"
//
//	orch, err := sahaay.New()
//	orch, err := sahaay.New(sahaay.WithConfigFile("/etc/sahaay/voice.yaml"))
//	orch, err := sahaay.New(sahaay.WithLogger(logger), sahaay.WithRecognizer(myCascade))
//
// Configuration follows the usual precedence: defaults, then the optional
// YAML file, then SAHAAY_* environment variables.
package sahaay

import (
	"go.uber.org/zap"

	"github.com/Aravindh9652/sahaay-ai-hackathon/audio"
	"github.com/Aravindh9652/sahaay-ai-hackathon/config"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/metrics"
	"github.com/Aravindh9652/sahaay-ai-hackathon/recognition"
	"github.com/Aravindh9652/sahaay-ai-hackathon/session"
	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
)

type options struct {
	configPath  string
	logger      *zap.Logger
	metrics     *metrics.Collector
	recognizer  *recognition.Cascade
	synthesizer *synthesis.Cascade
}

// Option configures the orchestrator created by [New].
type Option func(*options)

// WithConfigFile loads configuration from the given YAML file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(mc *metrics.Collector) Option {
	return func(o *options) { o.metrics = mc }
}

// WithRecognizer replaces the config-built recognition cascade.
func WithRecognizer(c *recognition.Cascade) Option {
	return func(o *options) { o.recognizer = c }
}

// WithSynthesizer replaces the config-built synthesis cascade.
func WithSynthesizer(c *synthesis.Cascade) Option {
	return func(o *options) { o.synthesizer = c }
}

// New creates a [session.Orchestrator] with minimal configuration.
// With no options it uses defaults plus SAHAAY_* environment variables,
// wiring Whisper-style recognition and ElevenLabs-style synthesis backends
// from the loaded configuration.
func New(opts ...Option) (*session.Orchestrator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loader := config.NewLoader()
	if o.configPath != "" {
		loader = loader.WithConfigPath(o.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := audio.NewAdapter(audio.Config{
		MinPayloadBytes: cfg.Audio.MinPayloadBytes,
		MaxPayloadBytes: cfg.Audio.MaxPayloadBytes,
		Formats:         cfg.Audio.Formats,
	}, logger)

	recognizer := o.recognizer
	if recognizer == nil {
		recognizer = recognition.NewCascade(recognition.CascadeConfig{
			ConfidenceThreshold: cfg.Voice.ConfidenceAcceptanceThreshold,
			DefaultLanguage:     cfg.Voice.DefaultLanguage,
			FallbackEnabled:     cfg.Voice.FallbackToOfflineRecognition,
			CompressionEnabled:  cfg.Voice.CompressionEnabled,
		}, adapter, logger, o.metrics,
			sttBackend(cfg.Recognition.Primary),
			sttBackend(cfg.Recognition.Fallback),
		)
	}

	synthesizer := o.synthesizer
	if synthesizer == nil {
		synthesizer = synthesis.NewCascade(synthesis.CascadeConfig{
			PreferLightweight:  cfg.Voice.PreferLightweightSynthesis,
			EnableRich:         cfg.Voice.EnableRichSynthesis,
			SupportedLanguages: cfg.Voice.SupportedLanguages,
		}, adapter, logger, o.metrics,
			ttsBackend(cfg.Synthesis.Lightweight),
			ttsBackend(cfg.Synthesis.Rich),
		)
	}

	return session.NewOrchestrator(
		session.ConfigFromVoice(cfg.Voice),
		recognizer, synthesizer,
		session.Options{Logger: logger, Metrics: o.metrics},
	), nil
}

func sttBackend(bc config.BackendConfig) recognition.Backend {
	if bc.Name == "" || bc.BaseURL == "" {
		return nil
	}
	hc := recognition.DefaultHTTPBackendConfig()
	hc.Name = bc.Name
	hc.BaseURL = bc.BaseURL
	hc.APIKey = bc.APIKey
	if bc.Model != "" {
		hc.Model = bc.Model
	}
	if bc.Timeout > 0 {
		hc.Timeout = bc.Timeout
	}
	hc.Languages = bc.Languages
	hc.RequestsPerSecond = bc.RequestsPerSecond
	return recognition.NewHTTPBackend(hc)
}

func ttsBackend(bc config.BackendConfig) synthesis.Backend {
	if bc.Name == "" || bc.BaseURL == "" {
		return nil
	}
	hc := synthesis.DefaultHTTPBackendConfig()
	hc.Name = bc.Name
	hc.BaseURL = bc.BaseURL
	hc.APIKey = bc.APIKey
	if bc.Model != "" {
		hc.Model = bc.Model
	}
	if bc.Timeout > 0 {
		hc.Timeout = bc.Timeout
	}
	hc.Languages = bc.Languages
	hc.RequestsPerSecond = bc.RequestsPerSecond
	return synthesis.NewHTTPBackend(hc)
}
