// Package metrics provides internal metrics collection for the voice core.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器.
// 通过注入 Registerer 支持测试中并行创建多个编排器而不触发重复注册.
type Collector struct {
	// 识别级联指标
	recognitionTotal    *prometheus.CounterVec
	recognitionDuration *prometheus.HistogramVec
	cascadeAttempts     *prometheus.CounterVec

	// 合成级联指标
	synthesisTotal    *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec

	// 会话指标
	sessionsActive      prometheus.Gauge
	sessionsExpired     prometheus.Counter
	fallbackSuggestions prometheus.Counter
	modeSwitches        *prometheus.CounterVec

	// 压缩指标
	compressionBytesSaved prometheus.Counter

	logger *zap.Logger
}

// NewCollector 创建指标收集器. reg 为 nil 时使用默认注册表.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.recognitionTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_requests_total",
			Help:      "Total number of speech-to-text requests",
		},
		[]string{"backend", "status"},
	)

	c.recognitionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_duration_seconds",
			Help:      "Speech-to-text request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)

	c.cascadeAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_attempts_total",
			Help:      "Backend attempts made by the recognition cascade",
		},
		[]string{"backend", "outcome"},
	)

	c.synthesisTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Total number of text-to-speech requests",
		},
		[]string{"backend", "status"},
	)

	c.synthesisDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Text-to-speech request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)

	c.sessionsActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of session contexts currently held",
		},
	)

	c.sessionsExpired = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions removed by the expiry sweep",
		},
	)

	c.fallbackSuggestions = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_suggestions_total",
			Help:      "Modality-switch suggestions raised after repeated failures",
		},
	)

	c.modeSwitches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_switches_total",
			Help:      "Explicit input mode switches",
		},
		[]string{"to_mode"},
	)

	c.compressionBytesSaved = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compression_bytes_saved_total",
			Help:      "Bytes removed from audio payloads by compression policy",
		},
	)

	return c
}

// RecordRecognition 记录一次识别请求结果.
func (c *Collector) RecordRecognition(backend, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.recognitionTotal.WithLabelValues(backend, status).Inc()
	c.recognitionDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCascadeAttempt 记录级联中单个后端的尝试结果.
func (c *Collector) RecordCascadeAttempt(backend, outcome string) {
	if c == nil {
		return
	}
	c.cascadeAttempts.WithLabelValues(backend, outcome).Inc()
}

// RecordSynthesis 记录一次合成请求结果.
func (c *Collector) RecordSynthesis(backend, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.synthesisTotal.WithLabelValues(backend, status).Inc()
	c.synthesisDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// SetActiveSessions 更新会话数量.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.sessionsActive.Set(float64(n))
}

// RecordExpiredSessions 记录被清扫的会话数.
func (c *Collector) RecordExpiredSessions(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.sessionsExpired.Add(float64(n))
}

// RecordFallbackSuggestion 记录一次降级建议.
func (c *Collector) RecordFallbackSuggestion() {
	if c == nil {
		return
	}
	c.fallbackSuggestions.Inc()
}

// RecordModeSwitch 记录一次输入方式切换.
func (c *Collector) RecordModeSwitch(toMode string) {
	if c == nil {
		return
	}
	c.modeSwitches.WithLabelValues(toMode).Inc()
}

// RecordCompressionSaved 记录压缩节省的字节数.
func (c *Collector) RecordCompressionSaved(bytes int) {
	if c == nil || bytes <= 0 {
		return
	}
	c.compressionBytesSaved.Add(float64(bytes))
}
