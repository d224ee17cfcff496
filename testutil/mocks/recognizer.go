// MockRecognizer 的语音识别后端测试模拟实现。
//
// 支持固定转写结果、置信度控制与错误注入场景。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Aravindh9652/sahaay-ai-hackathon/recognition"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// --- MockRecognizer 结构 ---

// MockRecognizer 是识别后端的模拟实现
type MockRecognizer struct {
	mu sync.RWMutex

	// 响应配置
	name       string
	text       string
	confidence float64
	language   string
	languages  []string
	err        error
	available  bool

	// 调用记录
	calls          []MockRecognizerCall
	transcribeFunc func(ctx context.Context, req *recognition.Request) (*types.Transcription, error)

	// 行为控制
	failAfter int // 在第 N 次调用后失败, 0 表示不启用
	callCount int
}

// MockRecognizerCall 记录单次调用
type MockRecognizerCall struct {
	Request *recognition.Request
	Result  *types.Transcription
	Error   error
}

// --- 构造函数和 Builder 方法 ---

// NewMockRecognizer 创建新的 MockRecognizer
func NewMockRecognizer(name string) *MockRecognizer {
	return &MockRecognizer{
		name:       name,
		text:       "mock transcription",
		confidence: 0.95,
		language:   types.LangEnglish,
		available:  true,
	}
}

// WithText 设置固定转写文本
func (m *MockRecognizer) WithText(text string) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return m
}

// WithConfidence 设置转写置信度
func (m *MockRecognizer) WithConfidence(confidence float64) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidence = confidence
	return m
}

// WithLanguage 设置转写结果语言
func (m *MockRecognizer) WithLanguage(language string) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.language = language
	return m
}

// WithLanguages 设置支持的语言列表
func (m *MockRecognizer) WithLanguages(languages ...string) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages = languages
	return m
}

// WithError 设置返回错误
func (m *MockRecognizer) WithError(err error) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithAvailable 设置后端可用性
func (m *MockRecognizer) WithAvailable(available bool) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// WithFailAfter 设置在第 N 次调用后开始失败
func (m *MockRecognizer) WithFailAfter(n int) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithTranscribeFunc 设置自定义转写逻辑, 优先于固定响应
func (m *MockRecognizer) WithTranscribeFunc(fn func(ctx context.Context, req *recognition.Request) (*types.Transcription, error)) *MockRecognizer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcribeFunc = fn
	return m
}

// --- Backend 接口实现 ---

func (m *MockRecognizer) Transcribe(ctx context.Context, req *recognition.Request) (*types.Transcription, error) {
	m.mu.Lock()
	m.callCount++
	failAfter, count := m.failAfter, m.callCount
	fn := m.transcribeFunc
	m.mu.Unlock()

	if fn != nil {
		result, err := fn(ctx, req)
		m.record(req, result, err)
		return result, err
	}

	m.mu.RLock()
	err := m.err
	result := &types.Transcription{
		Text:       m.text,
		Confidence: m.confidence,
		Language:   m.language,
		Backend:    m.name,
		CreatedAt:  time.Now(),
	}
	m.mu.RUnlock()

	if err == nil && failAfter > 0 && count > failAfter {
		err = types.NewError(types.ErrRecognitionFailed, "mock recognizer exhausted").WithBackend(m.name)
	}
	if err != nil {
		m.record(req, nil, err)
		return nil, err
	}
	if result.Language == "" && req != nil {
		result.Language = req.Language
	}
	m.record(req, result, nil)
	return result, nil
}

func (m *MockRecognizer) DetectLanguage(ctx context.Context, audio *types.Audio) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	return m.language, nil
}

func (m *MockRecognizer) IsAvailable(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

func (m *MockRecognizer) SupportedLanguages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.languages
}

func (m *MockRecognizer) Name() string {
	return m.name
}

// --- 调用记录 ---

func (m *MockRecognizer) record(req *recognition.Request, result *types.Transcription, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockRecognizerCall{Request: req, Result: result, Error: err})
}

// Calls 返回调用记录的副本
func (m *MockRecognizer) Calls() []MockRecognizerCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockRecognizerCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回 Transcribe 被调用的次数
func (m *MockRecognizer) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount
}

// Reset 清空调用记录和计数
func (m *MockRecognizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
}
