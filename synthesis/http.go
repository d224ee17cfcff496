package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/tlsutil"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// HTTPBackendConfig 配置基于 HTTP 的合成后端 (ElevenLabs 风格 API).
type HTTPBackendConfig struct {
	Name    string        `json:"name" yaml:"name"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // eleven_multilingual_v2
	VoiceID string        `json:"voice_id,omitempty" yaml:"voice_id,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Languages 为空表示不限语言
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	// RequestsPerSecond 客户端限流, 0 表示不限
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	// ProbeInterval 可用性探测结果缓存时长
	ProbeInterval time.Duration `json:"probe_interval,omitempty" yaml:"probe_interval,omitempty"`
}

// DefaultHTTPBackendConfig 返回默认 HTTP 合成后端配置.
func DefaultHTTPBackendConfig() HTTPBackendConfig {
	return HTTPBackendConfig{
		Name:          "elevenlabs",
		BaseURL:       "https://api.elevenlabs.io",
		Model:         "eleven_multilingual_v2",
		Timeout:       60 * time.Second,
		ProbeInterval: 30 * time.Second,
	}
}

// HTTPBackend 通过 ElevenLabs 风格的 HTTP API 执行合成.
type HTTPBackend struct {
	cfg     HTTPBackendConfig
	client  *http.Client
	limiter *rate.Limiter

	mu            sync.Mutex
	lastProbe     time.Time
	lastAvailable bool
}

// NewHTTPBackend 创建 HTTP 合成后端.
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

type ttsRequestBody struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize 将文本转换为语音.
func (b *HTTPBackend) Synthesize(ctx context.Context, req *Request) (*types.Audio, error) {
	if req == nil || req.Text == "" {
		return nil, fmt.Errorf("text input is required")
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	voiceID := req.VoiceProfile
	if voiceID == "" {
		voiceID = b.cfg.VoiceID
	}
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // default voice
	}

	payload, _ := json.Marshal(ttsRequestBody{Text: req.Text, ModelID: b.cfg.Model})
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128",
		strings.TrimRight(b.cfg.BaseURL, "/"), voiceID)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", b.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		b.record(false)
		return nil, types.NewError(types.ErrBackendUnavailable, b.cfg.Name+" request failed").
			WithBackend(b.cfg.Name).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s error: status=%d body=%s", b.cfg.Name, resp.StatusCode, string(errBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s audio: %w", b.cfg.Name, err)
	}

	out := &types.Audio{
		Data:         data,
		Format:       "mp3",
		SampleRateHz: 44100,
	}
	// 按 128kbps 输出码率估算时长
	out.DurationSeconds = float64(len(data)) * 8 / (128 * 1000)
	return out, nil
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string `json:"voice_id"`
		Name    string `json:"name"`
		Labels  struct {
			Gender      string `json:"gender"`
			Description string `json:"description"`
			Language    string `json:"language"`
		} `json:"labels"`
	} `json:"voices"`
}

// ListVoices 返回可用声音, 可按语言过滤.
func (b *HTTPBackend) ListVoices(ctx context.Context, language string) ([]Voice, error) {
	endpoint := fmt.Sprintf("%s/v1/voices", strings.TrimRight(b.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", b.cfg.APIKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s error: status=%d body=%s", b.cfg.Name, resp.StatusCode, string(errBody))
	}

	var vResp voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return nil, err
	}

	var voices []Voice
	for _, v := range vResp.Voices {
		if language != "" && v.Labels.Language != "" && v.Labels.Language != language {
			continue
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    v.Labels.Language,
			Gender:      v.Labels.Gender,
			Description: v.Labels.Description,
		})
	}
	return voices, nil
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

func (b *HTTPBackend) record(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastProbe = time.Now()
	b.lastAvailable = available
}
