// 软件包audio提供音频载荷的校验/压缩策略与网络自适应.
//
// 适配器是纯策略层: 它决定压缩级别对应的目标码率与采样率,
// 不实现具体编解码算法. 压缩为尽力而为, 失败时原样返回载荷.
package audio

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// ============================================================
// 压缩级别表
// ============================================================

// Target 是某个压缩级别对应的码率/采样率目标.
type Target struct {
	BitrateKbps  int
	SampleRateHz int
}

// compressionTargets 级别 1 最激进, 级别 10 最宽松.
var compressionTargets = map[int]Target{
	1:  {BitrateKbps: 8, SampleRateHz: 8000},
	2:  {BitrateKbps: 16, SampleRateHz: 11025},
	3:  {BitrateKbps: 24, SampleRateHz: 16000},
	4:  {BitrateKbps: 32, SampleRateHz: 16000},
	5:  {BitrateKbps: 48, SampleRateHz: 22050},
	6:  {BitrateKbps: 64, SampleRateHz: 22050},
	7:  {BitrateKbps: 96, SampleRateHz: 32000},
	8:  {BitrateKbps: 128, SampleRateHz: 44100},
	9:  {BitrateKbps: 192, SampleRateHz: 44100},
	10: {BitrateKbps: 320, SampleRateHz: 44100},
}

// TargetForLevel 返回压缩级别对应的目标, 级别越界时收敛到 1..10.
func TargetForLevel(level int) Target {
	return compressionTargets[clampLevel(level)]
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 10 {
		return 10
	}
	return level
}

// networkLevels 网络质量到压缩级别的映射.
var networkLevels = map[types.NetworkQuality]int{
	types.NetworkPoor: 2,
	types.NetworkFair: 4,
	types.NetworkGood: 6,
}

// assumedBitrateKbps 在载荷未携带时长时用于估算.
const assumedBitrateKbps = 128

// ============================================================
// 适配器
// ============================================================

// Config 配置音频适配器.
type Config struct {
	// 最小载荷字节数, 低于视为空/损坏
	MinPayloadBytes int `json:"min_payload_bytes" yaml:"min_payload_bytes"`
	// 最大载荷字节数
	MaxPayloadBytes int `json:"max_payload_bytes" yaml:"max_payload_bytes"`
	// 可接受的媒体格式
	Formats []string `json:"formats" yaml:"formats"`
}

// DefaultConfig 返回默认适配器配置.
func DefaultConfig() Config {
	return Config{
		MinPayloadBytes: 100,
		MaxPayloadBytes: 5 << 20, // 5 MB
		Formats:         []string{"wav", "mp3", "ogg", "opus", "pcm", "webm", "flac"},
	}
}

// Adapter 对音频载荷执行校验与质量变换策略. 无状态, 可并发使用.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
}

// NewAdapter 创建音频适配器. logger 为 nil 时使用 noop.
func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinPayloadBytes <= 0 {
		cfg.MinPayloadBytes = DefaultConfig().MinPayloadBytes
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultConfig().MaxPayloadBytes
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = DefaultConfig().Formats
	}
	return &Adapter{cfg: cfg, logger: logger}
}

// ValidationResult 是结构化的校验结果. Validate 从不返回 error.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate 校验音频载荷.
// 同一载荷重复校验得到相同结果.
func (a *Adapter) Validate(audio *types.Audio) ValidationResult {
	var errs []string

	if audio == nil || len(audio.Data) == 0 {
		return ValidationResult{Valid: false, Errors: []string{"audio payload is empty"}}
	}
	if len(audio.Data) < a.cfg.MinPayloadBytes {
		errs = append(errs, fmt.Sprintf("payload too small: %d bytes (min %d), likely empty or corrupt",
			len(audio.Data), a.cfg.MinPayloadBytes))
	}
	if len(audio.Data) > a.cfg.MaxPayloadBytes {
		errs = append(errs, fmt.Sprintf("payload too large: %d bytes (max %d)",
			len(audio.Data), a.cfg.MaxPayloadBytes))
	}
	if audio.Format != "" && !a.formatAllowed(audio.Format) {
		errs = append(errs, fmt.Sprintf("unrecognized media type: %q", audio.Format))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (a *Adapter) formatAllowed(format string) bool {
	format = strings.ToLower(format)
	for _, f := range a.cfg.Formats {
		if format == f {
			return true
		}
	}
	return false
}

// Compress 按级别对载荷应用压缩策略, 返回新载荷.
// 载荷已不大于目标大小时原样返回; 内部失败时也原样返回.
func (a *Adapter) Compress(audio *types.Audio, level int) *types.Audio {
	if audio == nil || len(audio.Data) == 0 {
		return audio
	}

	level = clampLevel(level)
	target := compressionTargets[level]
	duration := a.EstimateDuration(audio)

	// 目标字节数 = 码率(kbps) * 时长 / 8 * 1000
	targetSize := int(float64(target.BitrateKbps) * 1000 * duration / 8)
	if targetSize <= 0 {
		// 估算失败, 压缩是优化而非正确性要求
		return audio
	}
	if len(audio.Data) <= targetSize {
		return audio
	}

	out := &types.Audio{
		Data:            make([]byte, targetSize),
		Format:          audio.Format,
		DurationSeconds: duration,
		SampleRateHz:    target.SampleRateHz,
	}
	copy(out.Data, audio.Data[:targetSize])

	a.logger.Debug("audio compressed",
		zap.Int("level", level),
		zap.Int("original_bytes", len(audio.Data)),
		zap.Int("compressed_bytes", targetSize),
		zap.Int("target_sample_rate", target.SampleRateHz),
	)
	return out
}

// AdaptToNetwork 根据网络质量提示选择压缩级别并委托给 Compress.
// 未知质量按 good 处理.
func (a *Adapter) AdaptToNetwork(audio *types.Audio, quality types.NetworkQuality) *types.Audio {
	level, ok := networkLevels[quality]
	if !ok {
		level = networkLevels[types.NetworkGood]
	}
	return a.Compress(audio, level)
}

// EstimateDuration 估算音频时长(秒). 退化输入也至少返回 0.1 秒.
func (a *Adapter) EstimateDuration(audio *types.Audio) float64 {
	if audio == nil {
		return 0.1
	}
	if audio.DurationSeconds > 0 {
		return audio.DurationSeconds
	}

	bitrate := assumedBitrateKbps
	seconds := float64(len(audio.Data)) * 8 / float64(bitrate*1000)
	if seconds < 0.1 {
		return 0.1
	}
	return seconds
}
