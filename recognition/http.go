package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/tlsutil"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// HTTPBackendConfig 配置基于 HTTP 的识别后端 (Whisper 风格 API).
type HTTPBackendConfig struct {
	Name    string        `json:"name" yaml:"name"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // whisper-1
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Languages 为空表示不限语言
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	// RequestsPerSecond 客户端限流, 0 表示不限
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	// ProbeInterval 可用性探测结果缓存时长
	ProbeInterval time.Duration `json:"probe_interval,omitempty" yaml:"probe_interval,omitempty"`
}

// DefaultHTTPBackendConfig 返回默认 HTTP 识别后端配置.
func DefaultHTTPBackendConfig() HTTPBackendConfig {
	return HTTPBackendConfig{
		Name:          "whisper",
		BaseURL:       "https://api.openai.com",
		Model:         "whisper-1",
		Timeout:       120 * time.Second,
		ProbeInterval: 30 * time.Second,
	}
}

// HTTPBackend 通过 Whisper 风格的 HTTP API 执行识别.
//
// 可用性探测结果按 ProbeInterval 缓存; 后端不可达时 IsAvailable
// 返回 false 而不是让 Transcribe 失败.
type HTTPBackend struct {
	cfg     HTTPBackendConfig
	client  *http.Client
	limiter *rate.Limiter

	mu            sync.Mutex
	lastProbe     time.Time
	lastAvailable bool

	// 语言探测产生的完整转写, 按载荷指针缓存一次供紧随其后的转写复用
	detectMu     sync.Mutex
	detectAudio  *types.Audio
	detectResult *types.Transcription
}

// NewHTTPBackend 创建 HTTP 识别后端.
func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	def := DefaultHTTPBackendConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ProbeInterval == 0 {
		cfg.ProbeInterval = def.ProbeInterval
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPBackend{
		cfg:     cfg,
		client:  tlsutil.SecureHTTPClient(cfg.Timeout),
		limiter: limiter,
	}
}

func (b *HTTPBackend) Name() string { return b.cfg.Name }

func (b *HTTPBackend) SupportedLanguages() []string { return b.cfg.Languages }

type transcriptionResponse struct {
	Text         string   `json:"text"`
	Language     string   `json:"language,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	Duration     float64  `json:"duration,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Segments     []struct {
		Text       string  `json:"text"`
		AvgLogprob float64 `json:"avg_logprob,omitempty"`
	} `json:"segments,omitempty"`
}

// Transcribe 将语音转换为文本.
func (b *HTTPBackend) Transcribe(ctx context.Context, req *Request) (*types.Transcription, error) {
	if req == nil || req.Audio == nil || len(req.Audio.Data) == 0 {
		return nil, fmt.Errorf("audio input is required")
	}
	if cached := b.takeDetection(req); cached != nil {
		return cached, nil
	}
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	// 构建多部分表单
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := "audio." + req.Audio.Format
	if req.Audio.Format == "" {
		filename = "audio.wav"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Audio.Data); err != nil {
		return nil, fmt.Errorf("failed to write audio: %w", err)
	}

	_ = writer.WriteField("model", b.cfg.Model)
	if req.Language != "" {
		_ = writer.WriteField("language", req.Language)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		strings.TrimRight(b.cfg.BaseURL, "/")+"/v1/audio/transcriptions",
		&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(httpReq)
	if err != nil {
		b.markUnavailable()
		return nil, types.NewError(types.ErrBackendUnavailable, b.cfg.Name+" request failed").
			WithBackend(b.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s error: status=%d body=%s", b.cfg.Name, resp.StatusCode, string(errBody))
	}

	var tResp transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", b.cfg.Name, err)
	}

	return &types.Transcription{
		Text:         tResp.Text,
		Confidence:   tResp.Confidence,
		Language:     tResp.Language,
		Alternatives: tResp.Alternatives,
		Backend:      b.cfg.Name,
		CreatedAt:    time.Now(),
	}, nil
}

// DetectLanguage 通过不带语言提示的转写请求做语言猜测.
// 探测得到的完整转写按载荷缓存, 紧随其后对同一载荷的 Transcribe
// 直接复用该结果, 避免对同一后端重复转写.
func (b *HTTPBackend) DetectLanguage(ctx context.Context, payload *types.Audio) (string, error) {
	result, err := b.Transcribe(ctx, &Request{Audio: payload})
	if err != nil {
		return "", err
	}
	if result.Language == "" {
		return "", fmt.Errorf("%s returned no language guess", b.cfg.Name)
	}
	b.detectMu.Lock()
	b.detectAudio, b.detectResult = payload, result
	b.detectMu.Unlock()
	return result.Language, nil
}

// takeDetection 取出与请求匹配的探测转写缓存. 缓存是一次性的:
// 命中即清除, 失败后的重试会真正发起请求.
func (b *HTTPBackend) takeDetection(req *Request) *types.Transcription {
	b.detectMu.Lock()
	defer b.detectMu.Unlock()
	if b.detectAudio == nil || b.detectAudio != req.Audio {
		return nil
	}
	if req.Language != "" && req.Language != b.detectResult.Language {
		return nil
	}
	hit := *b.detectResult
	b.detectAudio, b.detectResult = nil, nil
	return &hit
}

// IsAvailable 探测后端可达性, 结果按 ProbeInterval 缓存.
func (b *HTTPBackend) IsAvailable(ctx context.Context) bool {
	b.mu.Lock()
	if time.Since(b.lastProbe) < b.cfg.ProbeInterval {
		available := b.lastAvailable
		b.mu.Unlock()
		return available
	}
	b.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, "HEAD",
		strings.TrimRight(b.cfg.BaseURL, "/")+"/", nil)
	if err != nil {
		b.record(false)
		return false
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		b.record(false)
		return false
	}
	resp.Body.Close()

	available := resp.StatusCode < 500
	b.record(available)
	return available
}

func (b *HTTPBackend) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *HTTPBackend) record(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastProbe = time.Now()
	b.lastAvailable = available
}

func (b *HTTPBackend) markUnavailable() {
	b.record(false)
}
