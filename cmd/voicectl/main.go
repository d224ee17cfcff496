// =============================================================================
// voicectl 主入口
// =============================================================================
// 语音编排层的命令行入口，包含后台会话清扫与后端健康检查
//
// 使用方法:
//
//	voicectl run                        # 启动编排服务
//	voicectl run --config config.yaml   # 指定配置文件
//	voicectl check                      # 探测全部语音后端
//	voicectl voices --language hi       # 列出指定语言的声音
//	voicectl version                    # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	sahaay "github.com/Aravindh9652/sahaay-ai-hackathon"
	"github.com/Aravindh9652/sahaay-ai-hackathon/config"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/metrics"
	"github.com/Aravindh9652/sahaay-ai-hackathon/internal/telemetry"
	"github.com/Aravindh9652/sahaay-ai-hackathon/session"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runService(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "voices":
		runVoices(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ run 命令
// =============================================================================

func runService(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	// 初始化日志
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting voice orchestration layer",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	orch := buildOrchestrator(*configPath, logger, prometheus.DefaultRegisterer)

	// 启动探测一次, 仅用于启动可见性
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	for name, ok := range orch.CheckBackends(probeCtx) {
		logger.Info("backend probe", zap.String("backend", name), zap.Bool("available", ok))
	}
	probeCancel()

	// 会话清扫定时器
	sweepInterval := time.Duration(cfg.Voice.SessionTimeoutMinutes) * time.Minute / 2
	if sweepInterval < time.Minute {
		sweepInterval = time.Minute
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Voice orchestration layer ready",
		zap.String("default_language", cfg.Voice.DefaultLanguage),
		zap.Duration("sweep_interval", sweepInterval),
	)

	for {
		select {
		case <-ticker.C:
			orch.ExpireStaleSessions()
		case sig := <-quit:
			logger.Info("Shutting down", zap.String("signal", sig.String()))
			if otelProviders != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := otelProviders.Shutdown(shutdownCtx); err != nil {
					logger.Warn("telemetry shutdown failed", zap.Error(err))
				}
				cancel()
			}
			logger.Info("Voice orchestration layer stopped")
			return
		}
	}
}

// =============================================================================
// 🏥 check 命令
// =============================================================================

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	timeout := fs.Duration("timeout", 10*time.Second, "Probe timeout")
	fs.Parse(args)

	orch := buildOrchestrator(*configPath, zap.NewNop(), prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results := orch.CheckBackends(ctx)
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	allUp := true
	for _, name := range names {
		status := "ok"
		if !results[name] {
			status = "unavailable"
			allUp = false
		}
		fmt.Printf("%-20s %s\n", name, status)
	}
	if !allUp {
		os.Exit(1)
	}
}

// =============================================================================
// 🗣️ voices 命令
// =============================================================================

func runVoices(args []string) {
	fs := flag.NewFlagSet("voices", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	language := fs.String("language", "", "Language code filter (e.g. hi)")
	fs.Parse(args)

	orch := buildOrchestrator(*configPath, zap.NewNop(), prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	voices := orch.AvailableVoices(ctx, *language)
	if len(voices) == 0 {
		fmt.Println("no voices available")
		return
	}
	for _, v := range voices {
		fmt.Printf("%-16s %-20s %-4s %s\n", v.ID, v.Name, v.Language, v.Gender)
	}
}

// =============================================================================
// 🔌 组件装配
// =============================================================================

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildOrchestrator(configPath string, logger *zap.Logger, reg prometheus.Registerer) *session.Orchestrator {
	opts := []sahaay.Option{
		sahaay.WithLogger(logger),
		sahaay.WithMetrics(metrics.NewCollector("sahaay_voice", reg, logger)),
	}
	if configPath != "" {
		opts = append(opts, sahaay.WithConfigFile(configPath))
	}

	orch, err := sahaay.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build orchestrator: %v\n", err)
		os.Exit(1)
	}
	return orch
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("voicectl %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`voicectl - Voice Orchestration Layer

Usage:
  voicectl <command> [options]

Commands:
  run       Start the orchestration service
  check     Probe all configured speech backends
  voices    List available synthesis voices
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)

Options for 'check':
  --config <path>   Path to configuration file (YAML)
  --timeout <dur>   Probe timeout (default 10s)

Options for 'voices':
  --config <path>     Path to configuration file (YAML)
  --language <code>   Filter voices by language code

Examples:
  voicectl run
  voicectl run --config /etc/sahaay/voice.yaml
  voicectl check --timeout 5s
  voicectl voices --language hi
  voicectl version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}
	if len(zapConfig.OutputPaths) == 0 {
		zapConfig.OutputPaths = []string{"stdout"}
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
