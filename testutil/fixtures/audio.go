// Package fixtures 提供测试数据工厂。
package fixtures

import (
	"bytes"
	"time"

	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// AudioPayload 返回给定大小的 WAV 音频负载.
// 内容是可重复的填充字节, 足够通过载荷校验.
func AudioPayload(size int) *types.Audio {
	return &types.Audio{
		Data:            bytes.Repeat([]byte{0xA5}, size),
		Format:          "wav",
		DurationSeconds: float64(size) * 8 / 128000,
		SampleRateHz:    16000,
	}
}

// ShortUtterance 返回一段典型的短语音 (约 2 秒, 32KB).
func ShortUtterance() *types.Audio {
	a := AudioPayload(32 * 1024)
	a.DurationSeconds = 2.0
	return a
}

// TinyPayload 返回小于载荷下限的音频, 用于触发校验失败.
func TinyPayload() *types.Audio {
	return AudioPayload(10)
}

// Transcription 返回一条置信度可配置的转写结果.
func Transcription(text, language string, confidence float64) *types.Transcription {
	return &types.Transcription{
		Text:       text,
		Confidence: confidence,
		Language:   language,
		Backend:    "fixture",
		CreatedAt:  time.Now(),
	}
}

// HindiVoices 返回一组印地语测试声音.
func HindiVoices() []synthesis.Voice {
	return []synthesis.Voice{
		{ID: "hi-f-1", Name: "Asha", Language: types.LangHindi, Gender: "female"},
		{ID: "hi-m-1", Name: "Ravi", Language: types.LangHindi, Gender: "male"},
	}
}

// EnglishVoices 返回一组英语测试声音.
func EnglishVoices() []synthesis.Voice {
	return []synthesis.Voice{
		{ID: "en-f-1", Name: "Maya", Language: types.LangEnglish, Gender: "female"},
	}
}
