package xsample

import (
	"context"
	"log/slog"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/observability/xlog"
)

// 默认采样配置
const (
	// DefaultSampleRate 默认采样比率：约 1% 的链开启调试日志
	DefaultSampleRate = 0.01

	// DefaultMaxChainLength 链长度的健全性上限
	//
	// 超过该值的链视为传播故障（如调用环路或失控扇出）的产物，
	// 重置为新链处理。正常业务链路远低于此值。
	DefaultMaxChainLength = 20
)

// Option 配置 Engine 的可选参数
type Option func(*Engine) error

// WithSampler 注入自定义采样策略
//
// 默认使用 DefaultSampleRate 的随机采样。需要跨进程一致的
// 决策时注入 ChainKeySampler。
func WithSampler(s Sampler) Option {
	return func(e *Engine) error {
		if s == nil {
			return ErrNilSampler
		}
		e.sampler = s
		return nil
	}
}

// WithMaxChainLength 设置链长度的健全性上限
//
// n < 1 时返回 ErrInvalidMaxChainLength。
func WithMaxChainLength(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return ErrInvalidMaxChainLength
		}
		e.maxChainLength = n
		return nil
	}
}

// WithLogger 注入引擎内部诊断使用的 logger
//
// 默认使用全局 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(e *Engine) error {
		if l == nil {
			return ErrNilLogger
		}
		e.logger = l
		return nil
	}
}

// Engine 采样决策引擎
//
// 每条链只做一次调试日志开关决策：
//   - 上游已解析的决策是权威的，原样沿用，绝不重新采样
//   - 入站元数据中的显式 override 信号强制开启，优先级最高
//   - 两者都没有时（链源头），执行一次采样并标记为已解析
//
// 链长度超过上限的入站上下文视为传播故障，重置为新链并告警。
type Engine struct {
	sampler        Sampler
	maxChainLength int
	logger         xlog.Logger
}

// NewEngine 创建采样决策引擎
//
// 默认配置：DefaultSampleRate 随机采样，DefaultMaxChainLength 长度上限，
// 全局默认 logger。nil option 返回 ErrNilOption。
func NewEngine(opts ...Option) (*Engine, error) {
	sampler, err := NewRateSampler(DefaultSampleRate)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		sampler:        sampler,
		maxChainLength: DefaultMaxChainLength,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = xlog.Default()
	}
	return e, nil
}

// Resolve 解析链的调试日志决策
//
// c 是当前调用已完成本地初始化的链（已有本跳标识）。
// override 为 true 表示入站元数据携带了显式的调试强制信号。
// 返回决策已解析的链；除长度超限重置外，链标识字段不变。
//
// 决策优先级（从高到低）：
//  1. 显式 override → 强制开启
//  2. 上游已解析的决策 → 原样沿用
//  3. 链源头采样 → 按配置比率决定
func (e *Engine) Resolve(ctx context.Context, c xchain.Chain, override bool) xchain.Chain {
	// 长度超限：疑似调用环路或失控扇出，丢弃入站链标识重新开始。
	// 告警带上被丢弃的标识，便于定位传播故障的源头。
	if c.ChainLength > e.maxChainLength {
		e.logger.Warn(ctx, "chain length exceeds sanity ceiling, starting fresh chain",
			slog.String("stale_chain_id", c.ChainID),
			slog.Int("stale_chain_length", c.ChainLength),
			slog.Int("max_chain_length", e.maxChainLength),
		)
		c = xchain.New()
	}

	// 显式 override 优先级最高：即使上游已解析为关闭也强制开启
	if override {
		c.Debug = xchain.DecisionOn
		return c
	}

	// 上游已解析的决策是权威的，绝不重新采样
	if c.Debug.Resolved() {
		return c
	}

	// 链源头：执行一次采样。
	// 采样器通过 context 读取链标识（ChainKeySampler），
	// 因此先把当前链装入 ctx 再询问。
	sctx, err := xchain.WithChain(ctx, c)
	if err != nil {
		// ctx 为 nil 时退化为无链 context，随机采样仍然可用
		sctx, _ = xchain.WithChain(context.Background(), c)
	}
	if e.sampler.ShouldSample(sctx) {
		c.Debug = xchain.DecisionOn
	} else {
		c.Debug = xchain.DecisionOff
	}
	return c
}

// SampleRate 返回引擎采样器的比率（若采样器支持自省）
//
// 返回值第二项为 false 表示注入的采样器不提供 Rate() 能力。
func (e *Engine) SampleRate() (float64, bool) {
	type rater interface{ Rate() float64 }
	if r, ok := e.sampler.(rater); ok {
		return r.Rate(), true
	}
	return 0, false
}
