// =============================================================================
// 📦 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("SAHAAY").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是语音编排核心的完整配置结构
type Config struct {
	// Voice 编排策略配置
	Voice VoiceConfig `yaml:"voice" env:"VOICE"`

	// Audio 音频适配器配置
	Audio AudioConfig `yaml:"audio" env:"AUDIO"`

	// Recognition 识别后端配置
	Recognition RecognitionConfig `yaml:"recognition" env:"RECOGNITION"`

	// Synthesis 合成后端配置
	Synthesis SynthesisConfig `yaml:"synthesis" env:"SYNTHESIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// VoiceConfig 编排策略配置
type VoiceConfig struct {
	// 是否优先使用轻量合成后端
	PreferLightweightSynthesis bool `yaml:"prefer_lightweight_synthesis" env:"PREFER_LIGHTWEIGHT_SYNTHESIS"`
	// 是否启用高质量合成后端
	EnableRichSynthesis bool `yaml:"enable_rich_synthesis" env:"ENABLE_RICH_SYNTHESIS"`
	// 是否允许降级到离线识别后端
	FallbackToOfflineRecognition bool `yaml:"fallback_to_offline_recognition" env:"FALLBACK_TO_OFFLINE_RECOGNITION"`
	// 识别置信度接受阈值 (0-1)
	ConfidenceAcceptanceThreshold float64 `yaml:"confidence_acceptance_threshold" env:"CONFIDENCE_ACCEPTANCE_THRESHOLD"`
	// 连续失败多少次后建议切换输入方式
	MaxFailuresBeforeFallback int `yaml:"max_failures_before_fallback" env:"MAX_FAILURES_BEFORE_FALLBACK"`
	// 会话闲置超时（分钟）
	SessionTimeoutMinutes int `yaml:"session_timeout_minutes" env:"SESSION_TIMEOUT_MINUTES"`
	// 是否启用识别前压缩
	CompressionEnabled bool `yaml:"compression_enabled" env:"COMPRESSION_ENABLED"`
	// 默认语言代码
	DefaultLanguage string `yaml:"default_language" env:"DEFAULT_LANGUAGE"`
	// 支持的语言集合
	SupportedLanguages []string `yaml:"supported_languages" env:"SUPPORTED_LANGUAGES"`
}

// AudioConfig 音频适配器配置
type AudioConfig struct {
	// 最小载荷字节数
	MinPayloadBytes int `yaml:"min_payload_bytes" env:"MIN_PAYLOAD_BYTES"`
	// 最大载荷字节数
	MaxPayloadBytes int `yaml:"max_payload_bytes" env:"MAX_PAYLOAD_BYTES"`
	// 可接受的媒体格式
	Formats []string `yaml:"formats" env:"FORMATS"`
}

// BackendConfig 单个 HTTP 语音后端配置
type BackendConfig struct {
	// 后端名称（日志与指标标签）
	Name string `yaml:"name" env:"NAME"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 支持的语言（空表示全部）
	Languages []string `yaml:"languages" env:"LANGUAGES"`
	// 客户端限流 QPS（0 表示不限流）
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
}

// RecognitionConfig 识别后端配置
type RecognitionConfig struct {
	// 高精度后端
	Primary BackendConfig `yaml:"primary" env:"PRIMARY"`
	// 离线/低成本降级后端
	Fallback BackendConfig `yaml:"fallback" env:"FALLBACK"`
}

// SynthesisConfig 合成后端配置
type SynthesisConfig struct {
	// 轻量后端
	Lightweight BackendConfig `yaml:"lightweight" env:"LIGHTWEIGHT"`
	// 高质量后端
	Rich BackendConfig `yaml:"rich" env:"RICH"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "SAHAAY",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Voice.ConfidenceAcceptanceThreshold < 0 || c.Voice.ConfidenceAcceptanceThreshold > 1 {
		errs = append(errs, "confidence_acceptance_threshold must be between 0 and 1")
	}
	if c.Voice.MaxFailuresBeforeFallback < 1 {
		errs = append(errs, "max_failures_before_fallback must be at least 1")
	}
	if c.Voice.SessionTimeoutMinutes < 1 {
		errs = append(errs, "session_timeout_minutes must be at least 1")
	}
	if c.Voice.DefaultLanguage == "" {
		errs = append(errs, "default_language must be set")
	}
	if c.Audio.MaxPayloadBytes > 0 && c.Audio.MinPayloadBytes > c.Audio.MaxPayloadBytes {
		errs = append(errs, "min_payload_bytes must not exceed max_payload_bytes")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
