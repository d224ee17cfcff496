package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aravindh9652/sahaay-ai-hackathon/recognition"
	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil/fixtures"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil/mocks"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

type orchestratorHarness struct {
	orch       *Orchestrator
	recognizer *mocks.MockRecognizer
	clock      time.Time
}

// newHarness 组装带单个可控识别后端和单个合成后端的编排器,
// 时钟可通过 advance 推进.
func newHarness(t *testing.T, cfg Config) *orchestratorHarness {
	logger := zaptest.NewLogger(t)

	rec := mocks.NewMockRecognizer("whisper").WithConfidence(0.9)
	recognizer := recognition.NewCascade(recognition.CascadeConfig{
		ConfidenceThreshold: 0.8,
		DefaultLanguage:     cfg.DefaultLanguage,
	}, nil, logger, nil, rec)

	synthesizer := synthesis.NewCascade(synthesis.CascadeConfig{
		PreferLightweight: true,
	}, nil, logger, nil, mocks.NewMockSynthesizer("espeak"), nil)

	h := &orchestratorHarness{
		orch:       NewOrchestrator(cfg, recognizer, synthesizer, Options{Logger: logger}),
		recognizer: rec,
		clock:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	h.orch.now = func() time.Time { return h.clock }
	return h
}

func (h *orchestratorHarness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func (h *orchestratorHarness) speak(t *testing.T, sessionID string) (*types.Transcription, error) {
	t.Helper()
	return h.orch.SpeechToText(testutil.TestContext(t), &SpeechRequest{
		Audio:     fixtures.ShortUtterance(),
		SessionID: sessionID,
	})
}

func TestSpeechToText_ResolvesSessionLanguage(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())
	h.recognizer.WithLanguage("")

	h.orch.SetContext("s1", types.LangHindi, types.InputModeVoice)

	result, err := h.speak(t, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.LangHindi, result.Language)

	// 显式语言优先于会话语言
	result, err = h.orch.SpeechToText(testutil.TestContext(t), &SpeechRequest{
		Audio:     fixtures.ShortUtterance(),
		SessionID: "s1",
		Language:  types.LangTamil,
	})
	require.NoError(t, err)
	assert.Equal(t, types.LangTamil, result.Language)
}

func TestSpeechToText_DefaultLanguageWithoutSession(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())
	h.recognizer.WithLanguage("")

	result, err := h.speak(t, "")
	require.NoError(t, err)
	assert.Equal(t, types.LangEnglish, result.Language)
}

// 核心降级场景: 语音会话连续识别失败, 第二次失败时建议切换到
// 文本输入, 且建议只给一次.
func TestSpeechToText_FallbackSuggestionLifecycle(t *testing.T) {
	h := newHarness(t, Config{
		DefaultLanguage:           types.LangHindi,
		MaxFailuresBeforeFallback: 2,
		SessionTimeout:            30 * time.Minute,
	})
	h.recognizer.WithError(errors.New("recognition upstream down"))
	h.orch.SetContext("s1", types.LangHindi, types.InputModeVoice)

	// 第一次失败: 还没有建议
	_, err := h.speak(t, "s1")
	require.Error(t, err)
	assert.Nil(t, types.GetFallback(err))

	snap, ok := h.orch.GetContext("s1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.FailureCount)
	assert.False(t, snap.FallbackSuggested)

	// 第二次失败: 错误携带降级建议
	_, err = h.speak(t, "s1")
	require.Error(t, err)
	suggestion := types.GetFallback(err)
	require.NotNil(t, suggestion)
	assert.Equal(t, types.InputModeText, suggestion.SuggestedMode)
	assert.Equal(t, types.FallbackReasonMultipleFailures, suggestion.Reason)
	assert.Equal(t, 2, suggestion.FailureCount)

	// 第三次失败: 建议不重复
	_, err = h.speak(t, "s1")
	require.Error(t, err)
	assert.Nil(t, types.GetFallback(err))

	// 已建议过时只读查询也保持沉默
	assert.Nil(t, h.orch.GetFallbackSuggestion("s1"))

	snap, _ = h.orch.GetContext("s1")
	assert.Equal(t, 3, snap.FailureCount)
	assert.True(t, snap.FallbackSuggested)
}

// 低置信度的尽力而为结果按成功处理: 只有级联耗尽的硬失败
// 推进失败计数与降级建议.
func TestSpeechToText_LowConfidenceDoesNotCountAsFailure(t *testing.T) {
	h := newHarness(t, Config{
		DefaultLanguage:           types.LangHindi,
		MaxFailuresBeforeFallback: 1,
		SessionTimeout:            30 * time.Minute,
	})
	h.recognizer.WithConfidence(0.4)
	h.orch.SetContext("s1", types.LangHindi, types.InputModeVoice)

	result, err := h.speak(t, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.4, result.Confidence)

	snap, ok := h.orch.GetContext("s1")
	require.True(t, ok)
	assert.Equal(t, 0, snap.FailureCount)
	assert.False(t, snap.FallbackSuggested)
	assert.Nil(t, h.orch.GetFallbackSuggestion("s1"))
}

func TestSpeechToText_SuccessResetsFailures(t *testing.T) {
	h := newHarness(t, Config{MaxFailuresBeforeFallback: 2})
	h.orch.SetContext("s1", types.LangEnglish, types.InputModeVoice)

	h.recognizer.WithError(errors.New("down"))
	_, err := h.speak(t, "s1")
	require.Error(t, err)

	// 成功一次, 计数和建议抑制位都归零
	h.recognizer.WithError(nil)
	_, err = h.speak(t, "s1")
	require.NoError(t, err)

	snap, _ := h.orch.GetContext("s1")
	assert.Equal(t, 0, snap.FailureCount)
	assert.False(t, snap.FallbackSuggested)

	// 重新开始累计: 仍然需要完整的两次失败才触发建议
	h.recognizer.WithError(errors.New("down again"))
	_, err = h.speak(t, "s1")
	assert.Nil(t, types.GetFallback(err))
	_, err = h.speak(t, "s1")
	assert.NotNil(t, types.GetFallback(err))
}

func TestSpeechToText_NoSuggestionWithoutSession(t *testing.T) {
	h := newHarness(t, Config{MaxFailuresBeforeFallback: 1})
	h.recognizer.WithError(errors.New("down"))

	// 无会话调用只返回错误, 不携带建议
	_, err := h.speak(t, "")
	require.Error(t, err)
	assert.Nil(t, types.GetFallback(err))
}

func TestSwitchInputMode(t *testing.T) {
	h := newHarness(t, Config{MaxFailuresBeforeFallback: 2})
	h.orch.SetContext("s1", types.LangHindi, types.InputModeVoice)

	h.recognizer.WithError(errors.New("down"))
	_, _ = h.speak(t, "s1")
	_, _ = h.speak(t, "s1")

	ok := h.orch.SwitchInputMode("s1", types.InputModeText, "user accepted suggestion")
	assert.True(t, ok)

	snap, _ := h.orch.GetContext("s1")
	assert.Equal(t, types.InputModeText, snap.Mode)
	assert.Equal(t, 0, snap.FailureCount)
	assert.False(t, snap.FallbackSuggested)

	t.Run("unknown session is a no-op", func(t *testing.T) {
		assert.False(t, h.orch.SwitchInputMode("missing", types.InputModeText, "test"))
	})

	t.Run("invalid mode rejected", func(t *testing.T) {
		assert.False(t, h.orch.SwitchInputMode("s1", types.InputMode("braille"), "test"))
	})
}

func TestTextFailuresDoNotTriggerSuggestion(t *testing.T) {
	h := newHarness(t, Config{MaxFailuresBeforeFallback: 1})
	h.orch.SetContext("s1", types.LangEnglish, types.InputModeText)

	h.recognizer.WithError(errors.New("down"))
	_, err := h.speak(t, "s1")
	require.Error(t, err)

	// 文本模式的会话不累计语音失败
	snap, _ := h.orch.GetContext("s1")
	assert.Equal(t, 0, snap.FailureCount)
	assert.Nil(t, h.orch.GetFallbackSuggestion("s1"))
}

func TestProcessText(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())
	h.orch.SetContext("s1", types.LangHindi, types.InputModeText)

	result, err := h.orch.ProcessText(testutil.TestContext(t), "बिजली नहीं है", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "बिजली नहीं है", result.Text)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, types.LangHindi, result.Language)

	snap, _ := h.orch.GetContext("s1")
	assert.Equal(t, 1, snap.TotalInteractions)

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := h.orch.ProcessText(testutil.TestContext(t), "   ", "s1", "")
		testutil.AssertErrorCode(t, err, types.ErrEmptyText)
	})
}

func TestTextToSpeech_StatelessPassThrough(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())
	h.orch.SetContext("s1", types.LangEnglish, types.InputModeVoice)

	out, err := h.orch.TextToSpeech(testutil.TestContext(t), "hello", types.LangEnglish, "")
	require.NoError(t, err)
	require.NotNil(t, out)

	// 合成不算一次输入交互
	snap, _ := h.orch.GetContext("s1")
	assert.Equal(t, 0, snap.TotalInteractions)
}

func TestContextLifecycle(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())

	t.Run("unknown session", func(t *testing.T) {
		_, ok := h.orch.GetContext("missing")
		assert.False(t, ok)
		assert.False(t, h.orch.ClearContext("missing"))
	})

	t.Run("implicit creation and defaults", func(t *testing.T) {
		h.orch.SetContext("s1", "", types.InputMode(""))
		snap, ok := h.orch.GetContext("s1")
		require.True(t, ok)
		assert.Equal(t, types.LangEnglish, snap.Language)
		assert.Equal(t, types.InputModeVoice, snap.Mode)
	})

	t.Run("update keeps counters", func(t *testing.T) {
		_, _ = h.orch.ProcessText(testutil.TestContext(t), "hi", "s1", "")
		h.orch.SetContext("s1", types.LangTamil, types.InputModeVoice)

		snap, _ := h.orch.GetContext("s1")
		assert.Equal(t, types.LangTamil, snap.Language)
		assert.Equal(t, 1, snap.TotalInteractions)
	})

	t.Run("snapshot is detached", func(t *testing.T) {
		snap, _ := h.orch.GetContext("s1")
		snap.Language = "xx"
		again, _ := h.orch.GetContext("s1")
		assert.Equal(t, types.LangTamil, again.Language)
	})

	t.Run("clear removes", func(t *testing.T) {
		assert.True(t, h.orch.ClearContext("s1"))
		_, ok := h.orch.GetContext("s1")
		assert.False(t, ok)
	})
}

func TestExpireStaleSessions(t *testing.T) {
	h := newHarness(t, Config{SessionTimeout: 30 * time.Minute})

	h.orch.SetContext("old", types.LangEnglish, types.InputModeVoice)
	h.advance(29 * time.Minute)
	h.orch.SetContext("fresh", types.LangEnglish, types.InputModeVoice)

	// old 闲置未到超时, 无清扫
	assert.Equal(t, 0, h.orch.ExpireStaleSessions())

	h.advance(2 * time.Minute)
	assert.Equal(t, 1, h.orch.ExpireStaleSessions())

	_, ok := h.orch.GetContext("old")
	assert.False(t, ok)
	_, ok = h.orch.GetContext("fresh")
	assert.True(t, ok)

	// 交互刷新闲置时间
	_, _ = h.orch.ProcessText(testutil.TestContext(t), "still here", "fresh", "")
	h.advance(29 * time.Minute)
	assert.Equal(t, 0, h.orch.ExpireStaleSessions())
}

func TestContextStatistics(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())

	h.orch.SetContext("v1", types.LangHindi, types.InputModeVoice)
	h.orch.SetContext("v2", types.LangEnglish, types.InputModeVoice)
	h.orch.SetContext("t1", types.LangTamil, types.InputModeText)

	_, _ = h.orch.ProcessText(testutil.TestContext(t), "one", "t1", "")
	_, _ = h.orch.ProcessText(testutil.TestContext(t), "two", "t1", "")

	// v2 很久没有交互, 不算活跃
	h.advance(10 * time.Minute)
	h.orch.SetContext("v1", types.LangHindi, types.InputModeVoice)
	_, _ = h.orch.ProcessText(testutil.TestContext(t), "three", "t1", "")

	stats := h.orch.ContextStatistics()
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 2, stats.SessionsByMode[types.InputModeVoice])
	assert.Equal(t, 1, stats.SessionsByMode[types.InputModeText])
	assert.InDelta(t, 1.0, stats.AverageInteractionsPerSession, 0.001)
}

func TestAvailabilityAccessors(t *testing.T) {
	ctx := testutil.TestContext(t)

	t.Run("backends up", func(t *testing.T) {
		h := newHarness(t, DefaultOrchestratorConfig())
		assert.True(t, h.orch.IsVoiceInputAvailable(ctx))
		assert.True(t, h.orch.IsVoiceOutputAvailable(ctx))
	})

	t.Run("recognition down", func(t *testing.T) {
		h := newHarness(t, DefaultOrchestratorConfig())
		h.recognizer.WithAvailable(false)
		assert.False(t, h.orch.IsVoiceInputAvailable(ctx))
	})

	t.Run("nil cascades", func(t *testing.T) {
		orch := NewOrchestrator(DefaultOrchestratorConfig(), nil, nil, Options{})
		assert.False(t, orch.IsVoiceInputAvailable(ctx))
		assert.False(t, orch.IsVoiceOutputAvailable(ctx))
		assert.Empty(t, orch.SupportedInputLanguages())
		assert.Empty(t, orch.CheckBackends(ctx))
	})
}

func TestCheckBackends(t *testing.T) {
	h := newHarness(t, DefaultOrchestratorConfig())
	h.recognizer.WithAvailable(false)

	results := h.orch.CheckBackends(testutil.TestContext(t))
	require.Len(t, results, 2)
	assert.False(t, results["whisper"])
	assert.True(t, results["espeak"])
}
