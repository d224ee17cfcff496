package recognition

import (
	"context"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// Request 代表一次语音识别请求.
type Request struct {
	Audio    *types.Audio         `json:"-"`
	Language string               `json:"language,omitempty"` // ISO-639-1, 空表示自动检测
	Network  types.NetworkQuality `json:"network,omitempty"`  // 调用方提供的网络质量提示
}

// Backend 定义识别后端接口.
//
// 后端不可达时必须通过 IsAvailable 上报 false, 而不是在 Transcribe 中
// 无限阻塞; 超时控制由后端实现自身负责.
type Backend interface {
	// Transcribe 将语音转换为文本.
	Transcribe(ctx context.Context, req *Request) (*types.Transcription, error)

	// DetectLanguage 对音频做语言猜测.
	DetectLanguage(ctx context.Context, audio *types.Audio) (string, error)

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
