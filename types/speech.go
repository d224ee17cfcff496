// 软件包types定义语音编排核心的共享数据模型.
package types

import "time"

// ============================================================
// 枚举
// ============================================================

// InputMode 表示会话当前生效的输入方式.
type InputMode string

const (
	InputModeVoice InputMode = "voice"
	InputModeText  InputMode = "text"
)

// Valid 判断输入方式是否为已知值.
func (m InputMode) Valid() bool {
	return m == InputModeVoice || m == InputModeText
}

// Opposite 返回另一种输入方式.
func (m InputMode) Opposite() InputMode {
	if m == InputModeVoice {
		return InputModeText
	}
	return InputModeVoice
}

// NetworkQuality 是调用方提供的网络质量提示, 核心自身不做测量.
type NetworkQuality string

const (
	NetworkPoor NetworkQuality = "poor"
	NetworkFair NetworkQuality = "fair"
	NetworkGood NetworkQuality = "good"
)

// 支持的语言代码 (ISO-639-1).
const (
	LangEnglish  = "en"
	LangHindi    = "hi"
	LangTamil    = "ta"
	LangTelugu   = "te"
	LangBengali  = "bn"
	LangMarathi  = "mr"
	LangKannada  = "kn"
	LangGujarati = "gu"
)

// DefaultLanguages 返回默认支持的语言集合.
func DefaultLanguages() []string {
	return []string{
		LangEnglish, LangHindi, LangTamil, LangTelugu,
		LangBengali, LangMarathi, LangKannada, LangGujarati,
	}
}

// ============================================================
// 音频与转写
// ============================================================

// Audio 是不可变的音频载荷. 适配器与级联返回新载荷, 从不原地修改.
type Audio struct {
	Data            []byte  `json:"-"`
	Format          string  `json:"format"` // wav, mp3, ogg, opus, pcm
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SampleRateHz    int     `json:"sample_rate_hz,omitempty"`
}

// Size 返回载荷字节数.
func (a *Audio) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Clone 返回载荷的深拷贝.
func (a *Audio) Clone() *Audio {
	if a == nil {
		return nil
	}
	dup := *a
	dup.Data = make([]byte, len(a.Data))
	copy(dup.Data, a.Data)
	return &dup
}

// Transcription 表示一次语音识别的结果.
// Confidence 为后端上报的置信度, 核心不做任何人为调整.
type Transcription struct {
	Text         string    `json:"text"`
	Confidence   float64   `json:"confidence"` // 0-1
	Language     string    `json:"language"`
	Alternatives []string  `json:"alternatives,omitempty"` // 按排名降序的候选文本
	Backend      string    `json:"backend,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ============================================================
// 降级建议
// ============================================================

// 降级建议的原因码.
const (
	FallbackReasonMultipleFailures = "multiple_failures"
)

// FallbackSuggestion 建议调用方切换输入方式.
// 在连续识别失败达到阈值后随错误一并返回, 每个重置窗口内只出现一次.
type FallbackSuggestion struct {
	SuggestedMode InputMode `json:"suggested_mode"`
	Reason        string    `json:"reason"`
	FailureCount  int       `json:"failure_count"`
}
