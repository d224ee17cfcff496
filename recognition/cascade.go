package recognition

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aravindh9652/sahaay-ai-hackathon/audio"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/metrics"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// CascadeConfig 配置识别级联.
type CascadeConfig struct {
	// ConfidenceThreshold 首选后端结果的接受阈值
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// DefaultLanguage 语言检测失败时的兜底语言
	DefaultLanguage string `json:"default_language" yaml:"default_language"`
	// FallbackEnabled 为 false 时只尝试首选后端
	FallbackEnabled bool `json:"fallback_enabled" yaml:"fallback_enabled"`
	// CompressionEnabled 为 true 且请求携带网络质量提示时做识别前压缩
	CompressionEnabled bool `json:"compression_enabled" yaml:"compression_enabled"`
}

// DefaultCascadeConfig 返回默认级联配置.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		ConfidenceThreshold: 0.8,
		DefaultLanguage:     types.LangEnglish,
		FallbackEnabled:     true,
		CompressionEnabled:  true,
	}
}

// Cascade 按优先级顺序尝试识别后端: 首选高精度后端, 其结果置信度
// 达标时立即返回; 否则依次降级. 后端严格串行尝试, 从不并发竞速.
//
// 新增后端只需在构造时追加到列表末尾.
type Cascade struct {
	backends []Backend
	adapter  *audio.Adapter
	cfg      CascadeConfig
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewCascade 创建识别级联. backends 按优先级从高到低排列, nil 条目被忽略.
func NewCascade(cfg CascadeConfig, adapter *audio.Adapter, logger *zap.Logger, mc *metrics.Collector, backends ...Backend) *Cascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			kept = append(kept, b)
		}
	}
	backends = kept
	if adapter == nil {
		adapter = audio.NewAdapter(audio.DefaultConfig(), logger)
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultCascadeConfig().ConfidenceThreshold
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultCascadeConfig().DefaultLanguage
	}
	return &Cascade{
		backends: backends,
		adapter:  adapter,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "recognition")),
		metrics:  mc,
	}
}

// Transcribe 执行级联识别.
//
// 后端不可达被级联静默吸收并尝试下一个; 只有全部后端耗尽才返回错误.
// 首选后端结果低于阈值时保留为候选, 降级后端也失败时以置信度最高的
// 候选作为尽力而为的结果返回. 尽力而为的结果按成功上报: 只有全部
// 后端耗尽的硬失败才会推进会话侧的失败计数与降级建议.
func (c *Cascade) Transcribe(ctx context.Context, req *Request) (*types.Transcription, error) {
	if req == nil || req.Audio == nil {
		return nil, types.NewError(types.ErrValidation, "audio payload is required")
	}
	if v := c.adapter.Validate(req.Audio); !v.Valid {
		return nil, types.NewError(types.ErrValidation, "malformed audio payload: "+strings.Join(v.Errors, "; "))
	}

	payload := req.Audio
	if c.cfg.CompressionEnabled && req.Network != "" {
		adapted := c.adapter.AdaptToNetwork(payload, req.Network)
		if c.metrics != nil {
			c.metrics.RecordCompressionSaved(payload.Size() - adapted.Size())
		}
		payload = adapted
	}

	language := req.Language
	if language == "" {
		language = c.DetectLanguage(ctx, payload)
	}

	var best *types.Transcription
	attempted := false

	for _, b := range c.candidates() {
		if !b.IsAvailable(ctx) {
			c.metrics.RecordCascadeAttempt(b.Name(), "unavailable")
			c.logger.Debug("recognition backend unavailable, trying next",
				zap.String("backend", b.Name()))
			continue
		}
		if !Supports(b, language) {
			c.metrics.RecordCascadeAttempt(b.Name(), "language_unsupported")
			continue
		}

		attempted = true
		start := time.Now()
		result, err := b.Transcribe(ctx, &Request{Audio: payload, Language: language})
		if err != nil {
			c.metrics.RecordCascadeAttempt(b.Name(), "error")
			c.logger.Warn("recognition backend failed",
				zap.String("backend", b.Name()),
				zap.String("language", language),
				zap.Error(err),
			)
			continue
		}

		result.Backend = b.Name()
		if result.Language == "" {
			result.Language = language
		}
		if result.CreatedAt.IsZero() {
			result.CreatedAt = time.Now()
		}
		c.metrics.RecordRecognition(b.Name(), "ok", time.Since(start))

		if result.Confidence >= c.cfg.ConfidenceThreshold {
			c.metrics.RecordCascadeAttempt(b.Name(), "accepted")
			return result, nil
		}

		c.metrics.RecordCascadeAttempt(b.Name(), "low_confidence")
		c.logger.Debug("recognition confidence below threshold, trying next",
			zap.String("backend", b.Name()),
			zap.Float64("confidence", result.Confidence),
			zap.Float64("threshold", c.cfg.ConfidenceThreshold),
		)
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}

	if best != nil {
		return best, nil
	}
	if !attempted {
		return nil, types.NewError(types.ErrRecognitionUnavailable,
			"no recognition backend available").WithRetryable(true)
	}
	return nil, types.NewError(types.ErrRecognitionFailed,
		"all recognition backends failed").WithRetryable(true)
}

// DetectLanguage 向第一个可用后端请求语言猜测.
// 猜测失败时返回配置的兜底语言, 从不向上传播错误.
func (c *Cascade) DetectLanguage(ctx context.Context, payload *types.Audio) string {
	for _, b := range c.candidates() {
		if !b.IsAvailable(ctx) {
			continue
		}
		lang, err := b.DetectLanguage(ctx, payload)
		if err == nil && lang != "" {
			return lang
		}
		c.logger.Debug("language detection failed, using default",
			zap.String("backend", b.Name()),
			zap.String("default", c.cfg.DefaultLanguage),
			zap.Error(err),
		)
		// 只询问第一个可用后端
		break
	}
	return c.cfg.DefaultLanguage
}

// IsAvailable 任一后端可用即为可用.
func (c *Cascade) IsAvailable(ctx context.Context) bool {
	for _, b := range c.candidates() {
		if b.IsAvailable(ctx) {
			return true
		}
	}
	return false
}

// SupportedLanguages 返回各后端支持语言的并集.
// 任一后端不限语言时返回 nil (表示不限).
func (c *Cascade) SupportedLanguages() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range c.candidates() {
		langs := b.SupportedLanguages()
		if len(langs) == 0 {
			return nil
		}
		for _, l := range langs {
			if _, ok := seen[l]; !ok {
				seen[l] = struct{}{}
				out = append(out, l)
			}
		}
	}
	return out
}

// Backends 返回按优先级排列的后端名称.
func (c *Cascade) Backends() []Backend {
	return c.candidates()
}

func (c *Cascade) candidates() []Backend {
	if !c.cfg.FallbackEnabled && len(c.backends) > 1 {
		return c.backends[:1]
	}
	return c.backends
}
