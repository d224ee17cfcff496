package synthesis

import (
	"context"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// Request 代表一次文本转语音请求.
type Request struct {
	Text         string `json:"text"`
	Language     string `json:"language"`
	VoiceProfile string `json:"voice_profile,omitempty"`
}

// Voice 代表一个可用的声音.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"` // male, female, neutral
	Description string `json:"description,omitempty"`
}

// Backend 定义合成后端接口.
//
// 后端不可达时必须通过 IsAvailable 上报 false; 超时控制由后端
// 实现自身负责.
type Backend interface {
	// Synthesize 将文本转换为语音.
	Synthesize(ctx context.Context, req *Request) (*types.Audio, error)

	// ListVoices 返回给定语言的可用声音.
	ListVoices(ctx context.Context, language string) ([]Voice, error)

	// IsAvailable 上报后端当前是否可用.
	IsAvailable(ctx context.Context) bool

	// SupportedLanguages 返回支持的语言, 空切片表示不限.
	SupportedLanguages() []string

	// Name 返回后端名称.
	Name() string
}

// Supports 判断后端是否覆盖给定语言. 空语言列表视为全覆盖.
func Supports(b Backend, language string) bool {
	langs := b.SupportedLanguages()
	if len(langs) == 0 {
		return true
	}
	for _, l := range langs {
		if l == language {
			return true
		}
	}
	return false
}
