package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Aravindh9652/sahaay-ai-hackathon/config"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/metrics"
	"github.com/Aravindh9652/sahaay-ai-hackathon/recognition"
	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// activeSessionWindow 统计口径: 最近 5 分钟内有交互的会话算作活跃.
const activeSessionWindow = 5 * time.Minute

// Config 配置会话编排器.
type Config struct {
	// DefaultLanguage 语言解析的最终兜底
	DefaultLanguage string `json:"default_language" yaml:"default_language"`
	// MaxFailuresBeforeFallback 连续失败阈值
	MaxFailuresBeforeFallback int `json:"max_failures_before_fallback" yaml:"max_failures_before_fallback"`
	// SessionTimeout 闲置超过该时长的会话被清扫
	SessionTimeout time.Duration `json:"session_timeout" yaml:"session_timeout"`
}

// DefaultOrchestratorConfig 返回默认编排器配置.
func DefaultOrchestratorConfig() Config {
	return Config{
		DefaultLanguage:           types.LangEnglish,
		MaxFailuresBeforeFallback: 2,
		SessionTimeout:            30 * time.Minute,
	}
}

// ConfigFromVoice 从配置文件的 VoiceConfig 映射编排器配置.
func ConfigFromVoice(cfg config.VoiceConfig) Config {
	out := DefaultOrchestratorConfig()
	if cfg.DefaultLanguage != "" {
		out.DefaultLanguage = cfg.DefaultLanguage
	}
	if cfg.MaxFailuresBeforeFallback >= 1 {
		out.MaxFailuresBeforeFallback = cfg.MaxFailuresBeforeFallback
	}
	if cfg.SessionTimeoutMinutes >= 1 {
		out.SessionTimeout = time.Duration(cfg.SessionTimeoutMinutes) * time.Minute
	}
	return out
}

// Options 编排器的可选依赖.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Orchestrator 是语音编排核心的公开入口.
//
// 会话注册表是编排器实例的字段而非包级单例, 测试中可以并存多个
// 互不影响的编排器. 编排器自身不启动任何后台任务, 过期清扫由
// 宿主按需调度.
type Orchestrator struct {
	cfg         Config
	recognizer  *recognition.Cascade
	synthesizer *synthesis.Cascade

	registry *registry

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	now     func() time.Time
}

// NewOrchestrator 创建会话编排器.
func NewOrchestrator(cfg Config, recognizer *recognition.Cascade, synthesizer *synthesis.Cascade, opts Options) *Orchestrator {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultOrchestratorConfig().DefaultLanguage
	}
	if cfg.MaxFailuresBeforeFallback < 1 {
		cfg.MaxFailuresBeforeFallback = DefaultOrchestratorConfig().MaxFailuresBeforeFallback
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultOrchestratorConfig().SessionTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		cfg:         cfg,
		recognizer:  recognizer,
		synthesizer: synthesizer,
		registry:    newRegistry(),
		logger:      logger.With(zap.String("component", "orchestrator")),
		metrics:     opts.Metrics,
		tracer:      otel.Tracer("sahaay/session"),
		now:         time.Now,
	}
}

// SpeechRequest 代表一次语音转文本请求.
type SpeechRequest struct {
	Audio     *types.Audio         `json:"-"`
	Language  string               `json:"language,omitempty"`   // 显式语言, 优先于会话语言
	SessionID string               `json:"session_id,omitempty"` // 空表示无上下文的单次调用
	Network   types.NetworkQuality `json:"network,omitempty"`
}

// SpeechToText 执行语音识别.
//
// 语言解析优先级: 显式参数 > 会话当前语言 > 配置默认语言.
// 失败时更新会话失败计数, 计数首次达到阈值的那次错误携带
// 降级建议, 其后被抑制直到成功或模态切换.
func (o *Orchestrator) SpeechToText(ctx context.Context, req *SpeechRequest) (*types.Transcription, error) {
	ctx, span := o.tracer.Start(ctx, "session.SpeechToText")
	defer span.End()

	if req == nil {
		return nil, types.NewError(types.ErrValidation, "speech request is required")
	}

	logger := o.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("session_id", req.SessionID),
	)

	language := o.resolveLanguage(req.Language, req.SessionID)
	result, err := o.recognizer.Transcribe(ctx, &recognition.Request{
		Audio:    req.Audio,
		Language: language,
		Network:  req.Network,
	})
	if err != nil {
		span.RecordError(err)
		suggestion := o.noteFailure(req.SessionID, language)
		if suggestion != nil {
			o.metrics.RecordFallbackSuggestion()
			logger.Info("suggesting input mode fallback",
				zap.String("suggested_mode", string(suggestion.SuggestedMode)),
				zap.Int("failure_count", suggestion.FailureCount),
			)
			if e, ok := err.(*types.Error); ok {
				err = e.WithFallback(suggestion)
			} else {
				err = types.NewError(types.ErrRecognitionFailed, "speech recognition failed").
					WithCause(err).WithFallback(suggestion)
			}
		}
		logger.Warn("speech recognition failed", zap.String("language", language), zap.Error(err))
		return nil, err
	}

	o.noteSuccess(req.SessionID, types.InputModeVoice, result.Language)
	logger.Debug("speech recognized",
		zap.String("backend", result.Backend),
		zap.String("language", result.Language),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

// TextToSpeech 执行文本转语音. 无失败语义, 不触碰会话上下文.
func (o *Orchestrator) TextToSpeech(ctx context.Context, text, language, voiceProfile string) (*types.Audio, error) {
	ctx, span := o.tracer.Start(ctx, "session.TextToSpeech")
	defer span.End()

	out, err := o.synthesizer.Synthesize(ctx, &synthesis.Request{
		Text:         text,
		Language:     language,
		VoiceProfile: voiceProfile,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// ProcessText 处理文本输入. 文本是权威输入, 没有识别不确定性,
// 以满置信度返回并作为成功交互更新会话.
func (o *Orchestrator) ProcessText(ctx context.Context, text, sessionID, language string) (*types.Transcription, error) {
	_, span := o.tracer.Start(ctx, "session.ProcessText")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, types.NewError(types.ErrEmptyText, "text must not be empty")
	}

	lang := o.resolveLanguage(language, sessionID)
	o.noteSuccess(sessionID, types.InputModeText, lang)

	return &types.Transcription{
		Text:       text,
		Confidence: 1.0,
		Language:   lang,
		Backend:    "text",
		CreatedAt:  o.now(),
	}, nil
}

// SetContext 创建或更新会话上下文. 会话在首次 SetContext 时隐式创建.
func (o *Orchestrator) SetContext(sessionID, language string, mode types.InputMode) {
	if sessionID == "" {
		return
	}
	if language == "" {
		language = o.cfg.DefaultLanguage
	}
	if !mode.Valid() {
		mode = types.InputModeVoice
	}

	now := o.now()
	s, created := o.registry.getOrCreate(sessionID, language, mode, now)
	if !created {
		s.update(language, mode, now)
	}
	o.metrics.SetActiveSessions(o.registry.size())

	o.logger.Debug("session context set",
		zap.String("session_id", sessionID),
		zap.String("language", language),
		zap.String("mode", string(mode)),
	)
}

// GetContext 返回会话上下文的只读快照.
// 未知会话不是错误: 返回 (nil, false).
func (o *Orchestrator) GetContext(sessionID string) (*Context, bool) {
	s := o.registry.get(sessionID)
	if s == nil {
		return nil, false
	}
	return s.snapshot(), true
}

// ClearContext 显式移除会话. 未知会话返回 false.
func (o *Orchestrator) ClearContext(sessionID string) bool {
	removed := o.registry.remove(sessionID)
	if removed {
		o.metrics.SetActiveSessions(o.registry.size())
	}
	return removed
}

// SwitchInputMode 显式切换会话输入方式.
// 没有上下文的会话是 no-op 而非错误, 返回 false.
func (o *Orchestrator) SwitchInputMode(sessionID string, newMode types.InputMode, reason string) bool {
	if !newMode.Valid() {
		o.logger.Warn("ignoring switch to unknown input mode",
			zap.String("session_id", sessionID),
			zap.String("mode", string(newMode)),
		)
		return false
	}
	s := o.registry.get(sessionID)
	if s == nil {
		return false
	}

	s.switchMode(newMode, o.now())
	o.metrics.RecordModeSwitch(string(newMode))
	o.logger.Info("input mode switched",
		zap.String("session_id", sessionID),
		zap.String("new_mode", string(newMode)),
		zap.String("reason", reason),
	)
	return true
}

// GetFallbackSuggestion 只读地重算是否应当建议降级.
// 已经建议过 (尚未重置) 时返回 nil, 避免重复打扰.
func (o *Orchestrator) GetFallbackSuggestion(sessionID string) *types.FallbackSuggestion {
	s := o.registry.get(sessionID)
	if s == nil {
		return nil
	}
	return s.pendingSuggestion(o.cfg.MaxFailuresBeforeFallback)
}

// ExpireStaleSessions 清扫闲置超时的会话, 返回移除数量.
// 编排器不自行调度, 由宿主按需 (如定时器) 调用.
func (o *Orchestrator) ExpireStaleSessions() int {
	cutoff := o.now().Add(-o.cfg.SessionTimeout)
	removed := o.registry.removeStale(cutoff)

	o.metrics.RecordExpiredSessions(removed)
	o.metrics.SetActiveSessions(o.registry.size())
	if removed > 0 {
		o.logger.Info("expired stale sessions", zap.Int("count", removed))
	}
	return removed
}

// Statistics 会话注册表统计.
type Statistics struct {
	TotalSessions                 int                     `json:"total_sessions"`
	ActiveSessions                int                     `json:"active_sessions"`
	AverageInteractionsPerSession float64                 `json:"average_interactions_per_session"`
	SessionsByMode                map[types.InputMode]int `json:"sessions_by_mode"`
}

// ContextStatistics 汇总当前注册表的统计信息.
func (o *Orchestrator) ContextStatistics() Statistics {
	stats := Statistics{
		SessionsByMode: map[types.InputMode]int{},
	}
	activeCutoff := o.now().Add(-activeSessionWindow)
	totalInteractions := 0

	for _, s := range o.registry.all() {
		snap := s.snapshot()
		stats.TotalSessions++
		totalInteractions += snap.TotalInteractions
		stats.SessionsByMode[snap.Mode]++
		if snap.LastInteractionAt.After(activeCutoff) {
			stats.ActiveSessions++
		}
	}

	if stats.TotalSessions > 0 {
		stats.AverageInteractionsPerSession = float64(totalInteractions) / float64(stats.TotalSessions)
	}
	return stats
}

// IsVoiceInputAvailable 上报语音输入当前是否可用.
func (o *Orchestrator) IsVoiceInputAvailable(ctx context.Context) bool {
	return o.recognizer != nil && o.recognizer.IsAvailable(ctx)
}

// IsVoiceOutputAvailable 上报语音输出当前是否可用.
func (o *Orchestrator) IsVoiceOutputAvailable(ctx context.Context) bool {
	return o.synthesizer != nil && o.synthesizer.IsAvailable(ctx)
}

// SupportedInputLanguages 返回识别侧支持的语言 (nil 表示不限).
func (o *Orchestrator) SupportedInputLanguages() []string {
	if o.recognizer == nil {
		return []string{}
	}
	return o.recognizer.SupportedLanguages()
}

// SupportedOutputLanguages 返回合成侧支持的语言 (nil 表示不限).
func (o *Orchestrator) SupportedOutputLanguages() []string {
	if o.synthesizer == nil {
		return []string{}
	}
	return o.synthesizer.SupportedLanguages()
}

// AvailableVoices 返回给定语言的可用声音.
func (o *Orchestrator) AvailableVoices(ctx context.Context, language string) []synthesis.Voice {
	if o.synthesizer == nil {
		return nil
	}
	return o.synthesizer.AvailableVoices(ctx, language)
}

// CheckBackends 并发探测所有已配置后端的可用性, 返回 名称→可用.
func (o *Orchestrator) CheckBackends(ctx context.Context) map[string]bool {
	type probe struct {
		name  string
		check func(context.Context) bool
	}
	var probes []probe

	if o.recognizer != nil {
		for _, b := range o.recognizer.Backends() {
			b := b
			probes = append(probes, probe{name: b.Name(), check: b.IsAvailable})
		}
	}
	if o.synthesizer != nil {
		for _, b := range o.synthesizer.Backends() {
			b := b
			probes = append(probes, probe{name: b.Name(), check: b.IsAvailable})
		}
	}

	results := make([]bool, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			results[i] = p.check(gctx)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(probes))
	for i, p := range probes {
		out[p.name] = results[i]
	}
	return out
}

// resolveLanguage 语言解析: 显式参数 > 会话当前语言 > 配置默认.
func (o *Orchestrator) resolveLanguage(explicit, sessionID string) string {
	if explicit != "" {
		return explicit
	}
	if s := o.registry.get(sessionID); s != nil {
		if lang := s.currentLanguage(); lang != "" {
			return lang
		}
	}
	return o.cfg.DefaultLanguage
}

// noteSuccess 将成功交互记入会话. 无上下文的会话静默跳过.
func (o *Orchestrator) noteSuccess(sessionID string, mode types.InputMode, language string) {
	if s := o.registry.get(sessionID); s != nil {
		s.recordSuccess(mode, language, o.now())
	}
}

// noteFailure 将失败交互记入会话并返回可能的降级建议.
func (o *Orchestrator) noteFailure(sessionID, language string) *types.FallbackSuggestion {
	s := o.registry.get(sessionID)
	if s == nil {
		return nil
	}
	return s.recordFailure(language, o.cfg.MaxFailuresBeforeFallback, o.now())
}
