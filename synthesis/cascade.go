package synthesis

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Aravindh9652/sahaay-ai-hackathon/audio"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/metrics"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// ssmlTagPattern 匹配 SSML 标记. 标记感知的韵律控制不在本核心范围内,
// 带标记的输入剥离为纯文本后再合成.
var ssmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// CascadeConfig 配置合成级联.
type CascadeConfig struct {
	// PreferLightweight 为 true 时优先使用轻量后端
	PreferLightweight bool `json:"prefer_lightweight" yaml:"prefer_lightweight"`
	// EnableRich 为 false 时高质量后端不参与选择
	EnableRich bool `json:"enable_rich" yaml:"enable_rich"`
	// SupportedLanguages 入口校验使用的语言集合, 空表示不校验
	SupportedLanguages []string `json:"supported_languages" yaml:"supported_languages"`
}

// DefaultCascadeConfig 返回默认合成级联配置.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		PreferLightweight:  true,
		EnableRich:         true,
		SupportedLanguages: types.DefaultLanguages(),
	}
}

// Cascade 在轻量与高质量合成后端之间做优先级选择.
//
// 与识别级联相反, 默认偏向快速/离线的轻量后端, 高质量后端作为
// 增强; 两者都不可用时宁可降级也不过早整体失败.
type Cascade struct {
	lightweight Backend
	rich        Backend
	adapter     *audio.Adapter
	cfg         CascadeConfig
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// NewCascade 创建合成级联. lightweight 与 rich 都可为 nil.
func NewCascade(cfg CascadeConfig, adapter *audio.Adapter, logger *zap.Logger, mc *metrics.Collector, lightweight, rich Backend) *Cascade {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = audio.NewAdapter(audio.DefaultConfig(), logger)
	}
	return &Cascade{
		lightweight: lightweight,
		rich:        rich,
		adapter:     adapter,
		cfg:         cfg,
		logger:      logger.With(zap.String("component", "synthesis")),
		metrics:     mc,
	}
}

// Synthesize 执行级联合成.
//
// 空文本与不支持的语言在调用任何后端之前即被拒绝.
func (c *Cascade) Synthesize(ctx context.Context, req *Request) (*types.Audio, error) {
	if req == nil {
		return nil, types.NewError(types.ErrValidation, "synthesis request is required")
	}

	text := StripSSML(req.Text)
	if text == "" {
		return nil, types.NewError(types.ErrEmptyText, "text must not be empty")
	}
	if !c.languageSupported(req.Language) {
		return nil, types.NewError(types.ErrUnsupportedLang,
			"unsupported language: "+req.Language)
	}

	candidates := c.order(req.Language)
	if len(candidates) == 0 {
		return nil, types.NewError(types.ErrNoSynthesisEngine,
			"no synthesis backend supports language "+req.Language)
	}

	clean := &Request{Text: text, Language: req.Language, VoiceProfile: req.VoiceProfile}
	attempted := false

	for _, b := range candidates {
		if !b.IsAvailable(ctx) {
			c.logger.Debug("synthesis backend unavailable, trying next",
				zap.String("backend", b.Name()))
			continue
		}

		attempted = true
		start := time.Now()
		out, err := b.Synthesize(ctx, clean)
		if err != nil {
			c.metrics.RecordSynthesis(b.Name(), "error", time.Since(start))
			c.logger.Warn("synthesis backend failed",
				zap.String("backend", b.Name()),
				zap.String("language", req.Language),
				zap.Error(err),
			)
			continue
		}
		c.metrics.RecordSynthesis(b.Name(), "ok", time.Since(start))
		return out, nil
	}

	if !attempted {
		return nil, types.NewError(types.ErrNoSynthesisEngine,
			"no synthesis backend available for language "+req.Language).WithRetryable(true)
	}
	return nil, types.NewError(types.ErrSynthesisFailed,
		"all synthesis backends failed").WithRetryable(true)
}

// AvailableVoices 返回可用后端对给定语言的声音并集.
func (c *Cascade) AvailableVoices(ctx context.Context, language string) []Voice {
	seen := make(map[string]struct{})
	var out []Voice
	for _, b := range c.order(language) {
		if !b.IsAvailable(ctx) {
			continue
		}
		voices, err := b.ListVoices(ctx, language)
		if err != nil {
			c.logger.Debug("list voices failed",
				zap.String("backend", b.Name()), zap.Error(err))
			continue
		}
		for _, v := range voices {
			key := b.Name() + "/" + v.ID
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

// Compress 委托音频适配器压缩, 并在实际发生压缩时将非压缩容器
// (wav/pcm) 降级为压缩容器.
func (c *Cascade) Compress(payload *types.Audio, level int) *types.Audio {
	out := c.adapter.Compress(payload, level)
	if out == payload {
		// 未发生压缩
		return out
	}
	switch strings.ToLower(out.Format) {
	case "wav", "pcm":
		out.Format = "opus"
	}
	if c.metrics != nil && payload != nil {
		c.metrics.RecordCompressionSaved(payload.Size() - out.Size())
	}
	return out
}

// IsAvailable 任一参与选择的后端可用即为可用.
func (c *Cascade) IsAvailable(ctx context.Context) bool {
	if c.lightweight != nil && c.lightweight.IsAvailable(ctx) {
		return true
	}
	if c.cfg.EnableRich && c.rich != nil && c.rich.IsAvailable(ctx) {
		return true
	}
	return false
}

// SupportedLanguages 返回参与选择的后端支持语言的并集.
// 任一后端不限语言时返回 nil.
func (c *Cascade) SupportedLanguages() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range c.enabled() {
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

// Backends 返回参与选择的后端.
func (c *Cascade) Backends() []Backend {
	return c.enabled()
}

// order 按配置的偏好返回覆盖该语言的后端尝试顺序:
// 偏好轻量时 轻量→高质量, 否则 高质量→轻量(最终降级).
func (c *Cascade) order(language string) []Backend {
	lightOK := c.lightweight != nil && Supports(c.lightweight, language)
	richOK := c.cfg.EnableRich && c.rich != nil && Supports(c.rich, language)

	var out []Backend
	if c.cfg.PreferLightweight && lightOK {
		out = append(out, c.lightweight)
	}
	if richOK {
		out = append(out, c.rich)
	}
	if !c.cfg.PreferLightweight && lightOK {
		out = append(out, c.lightweight)
	}
	return out
}

func (c *Cascade) enabled() []Backend {
	var out []Backend
	if c.lightweight != nil {
		out = append(out, c.lightweight)
	}
	if c.cfg.EnableRich && c.rich != nil {
		out = append(out, c.rich)
	}
	return out
}

func (c *Cascade) languageSupported(language string) bool {
	if language == "" {
		return false
	}
	if len(c.cfg.SupportedLanguages) == 0 {
		return true
	}
	for _, l := range c.cfg.SupportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}

// StripSSML 剥离 SSML 标记并归一化空白.
func StripSSML(text string) string {
	plain := ssmlTagPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(plain), " ")
}
