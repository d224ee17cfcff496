// MockSynthesizer 的语音合成后端测试模拟实现。
package mocks

import (
	"context"
	"sync"

	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// MockSynthesizer 是合成后端的模拟实现
type MockSynthesizer struct {
	mu sync.RWMutex

	name      string
	audio     *types.Audio
	voices    []synthesis.Voice
	languages []string
	err       error
	available bool

	calls []MockSynthesizerCall
}

// MockSynthesizerCall 记录单次调用
type MockSynthesizerCall struct {
	Request *synthesis.Request
	Result  *types.Audio
	Error   error
}

// NewMockSynthesizer 创建新的 MockSynthesizer
func NewMockSynthesizer(name string) *MockSynthesizer {
	return &MockSynthesizer{
		name: name,
		audio: &types.Audio{
			Data:            []byte("mock-audio"),
			Format:          "wav",
			DurationSeconds: 1.0,
			SampleRateHz:    22050,
		},
		available: true,
	}
}

// WithAudio 设置固定合成结果
func (m *MockSynthesizer) WithAudio(audio *types.Audio) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio = audio
	return m
}

// WithVoices 设置可用声音列表
func (m *MockSynthesizer) WithVoices(voices ...synthesis.Voice) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices = voices
	return m
}

// WithLanguages 设置支持的语言列表
func (m *MockSynthesizer) WithLanguages(languages ...string) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages = languages
	return m
}

// WithError 设置返回错误
func (m *MockSynthesizer) WithError(err error) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithAvailable 设置后端可用性
func (m *MockSynthesizer) WithAvailable(available bool) *MockSynthesizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// --- Backend 接口实现 ---

func (m *MockSynthesizer) Synthesize(ctx context.Context, req *synthesis.Request) (*types.Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		m.calls = append(m.calls, MockSynthesizerCall{Request: req, Error: m.err})
		return nil, m.err
	}
	out := m.audio.Clone()
	m.calls = append(m.calls, MockSynthesizerCall{Request: req, Result: out})
	return out, nil
}

func (m *MockSynthesizer) ListVoices(ctx context.Context, language string) ([]synthesis.Voice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	if language == "" {
		out := make([]synthesis.Voice, len(m.voices))
		copy(out, m.voices)
		return out, nil
	}
	var out []synthesis.Voice
	for _, v := range m.voices {
		if v.Language == language {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockSynthesizer) IsAvailable(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

func (m *MockSynthesizer) SupportedLanguages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.languages
}

func (m *MockSynthesizer) Name() string {
	return m.name
}

// Calls 返回调用记录的副本
func (m *MockSynthesizer) Calls() []MockSynthesizerCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockSynthesizerCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回 Synthesize 被调用的次数
func (m *MockSynthesizer) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}
