package xconf

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/misurellig/chainkit/pkg/observability/xlog"
)

// 默认运行参数
//
// 与各包内的默认常量保持一致；配置项非法时逐项回退到这里的值。
const (
	DefaultSamplingRate   = 0.01
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultSafetyMargin   = 500 * time.Millisecond
	DefaultMaxChainLength = 20
)

// SamplingSettings 采样决策引擎参数
type SamplingSettings struct {
	// Rate 采样比率，[0.0, 1.0]
	Rate float64 `koanf:"rate"`

	// Deterministic 是否使用基于链标识的确定性采样
	// false 时使用随机采样
	Deterministic bool `koanf:"deterministic"`
}

// LogSettings 日志参数
type LogSettings struct {
	// Level 日志级别阈值：debug/info/warn/error
	Level string `koanf:"level"`

	// Format 输出格式：text/json
	Format string `koanf:"format"`
}

// WatchdogSettings 超时看门狗参数
type WatchdogSettings struct {
	// SafetyMargin 安全余量，time.ParseDuration 格式（如 "500ms"）
	SafetyMargin string `koanf:"safety_margin"`
}

// ChainSettings 链传播参数
type ChainSettings struct {
	// MaxLength 链长度健全性上限
	MaxLength int `koanf:"max_length"`
}

// Settings 子系统的全部运行参数
//
// 进程启动时读取一次；调整配置走重新部署。
type Settings struct {
	Sampling SamplingSettings `koanf:"sampling"`
	Log      LogSettings      `koanf:"log"`
	Watchdog WatchdogSettings `koanf:"watchdog"`
	Chain    ChainSettings    `koanf:"chain"`
}

// DefaultSettings 返回全默认值的运行参数
func DefaultSettings() Settings {
	return Settings{
		Sampling: SamplingSettings{Rate: DefaultSamplingRate},
		Log:      LogSettings{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Watchdog: WatchdogSettings{SafetyMargin: DefaultSafetyMargin.String()},
		Chain:    ChainSettings{MaxLength: DefaultMaxChainLength},
	}
}

// SafetyMarginDuration 返回解析后的看门狗安全余量
//
// 字段非法时返回默认余量；Normalize 已对非法值告警，这里静默回退。
func (s Settings) SafetyMarginDuration() time.Duration {
	d, err := time.ParseDuration(s.Watchdog.SafetyMargin)
	if err != nil || d <= 0 {
		return DefaultSafetyMargin
	}
	return d
}

// LoadSettings 从配置实例加载运行参数
//
// 缺失的配置段取默认值；非法的配置项逐项回退到默认值并在 warn
// 级别记录一次（配置错误绝不让进程起不来——它只影响诊断质量，
// 不影响业务正确性）。cfg 为 nil 时直接返回全默认值。
func LoadSettings(ctx context.Context, cfg Config, logger xlog.Logger) Settings {
	if logger == nil {
		logger = xlog.Default()
	}
	settings := DefaultSettings()
	if cfg == nil {
		return settings
	}

	if err := cfg.Unmarshal("", &settings); err != nil {
		logger.Warn(ctx, "settings unmarshal failed, using defaults",
			slog.Any("error", err))
		return DefaultSettings()
	}
	return settings.Normalize(ctx, logger)
}

// Normalize 校验各配置项并把非法值逐项回退到默认值
//
// 每个非法项记录一条 warn，正常项保持不变。
func (s Settings) Normalize(ctx context.Context, logger xlog.Logger) Settings {
	if logger == nil {
		logger = xlog.Default()
	}

	if math.IsNaN(s.Sampling.Rate) || s.Sampling.Rate < 0 || s.Sampling.Rate > 1 {
		logger.Warn(ctx, "invalid sampling rate, falling back to default",
			slog.Float64("rate", s.Sampling.Rate),
			slog.Float64("default", DefaultSamplingRate))
		s.Sampling.Rate = DefaultSamplingRate
	}

	if s.Log.Level == "" {
		s.Log.Level = DefaultLogLevel
	} else if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		logger.Warn(ctx, "invalid log level, falling back to default",
			slog.String("level", s.Log.Level),
			slog.String("default", DefaultLogLevel))
		s.Log.Level = DefaultLogLevel
	}

	switch s.Log.Format {
	case "":
		s.Log.Format = DefaultLogFormat
	case "text", "json":
	default:
		logger.Warn(ctx, "invalid log format, falling back to default",
			slog.String("format", s.Log.Format),
			slog.String("default", DefaultLogFormat))
		s.Log.Format = DefaultLogFormat
	}

	if s.Watchdog.SafetyMargin == "" {
		s.Watchdog.SafetyMargin = DefaultSafetyMargin.String()
	} else if d, err := time.ParseDuration(s.Watchdog.SafetyMargin); err != nil || d <= 0 {
		logger.Warn(ctx, "invalid watchdog safety margin, falling back to default",
			slog.String("safety_margin", s.Watchdog.SafetyMargin),
			slog.String("default", DefaultSafetyMargin.String()))
		s.Watchdog.SafetyMargin = DefaultSafetyMargin.String()
	}

	if s.Chain.MaxLength < 1 {
		if s.Chain.MaxLength != 0 {
			logger.Warn(ctx, "invalid max chain length, falling back to default",
				slog.Int("max_length", s.Chain.MaxLength),
				slog.Int("default", DefaultMaxChainLength))
		}
		s.Chain.MaxLength = DefaultMaxChainLength
	}

	return s
}
