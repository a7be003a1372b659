package xsample

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// ChainKeyOption 配置 ChainKeySampler 的可选参数
type ChainKeyOption func(*ChainKeySampler)

// WithOnEmptyKey 设置空 key 回调函数
//
// 当 context 中没有可用的链标识时，在执行随机采样回退前调用此回调。
// 用于指标计数或日志记录，帮助发现链上下文传播断裂问题。
//
// 设计决策: 回调未做 recover 隔离——回调 panic 会直接传播到 ShouldSample 调用方。
// 这是有意为之：(1) 采样热路径不引入 defer 开销；(2) panic 是编程错误，应快速暴露
// 而非静默吞没；(3) 回调由调用方注入，调用方有责任保证其安全性。
// 回调应当轻量（如原子计数器递增）。nil 回调会被忽略。
func WithOnEmptyKey(fn func()) ChainKeyOption {
	return func(s *ChainKeySampler) {
		if fn != nil {
			s.onEmptyKey = fn
		}
	}
}

// ChainKeySampler 基于链标识的一致性采样策略
//
// 对相同的链标识，在相同的 rate 下总是产生相同的采样决策。
// 同一条链无论在哪个进程、哪一跳上做决策，结果都一致，
// 因此即使上游因故丢失了已解析的决策位，下游重新采样也不会
// 让同一条链在不同节点上时开时关。
//
// 设计决策: 工厂函数返回具体类型而非 Sampler 接口，因为 Rate() 方法提供了
// 有用的自省能力（如日志、调试），这些无法通过 Sampler 接口获得。
type ChainKeySampler struct {
	rate       float64
	onEmptyKey func() // 空 key 回调，用于可观测性（指标/日志）
}

// NewChainKeySampler 创建基于链标识的一致性采样器
//
// rate 表示采样比率，范围 [0.0, 1.0]，超出范围或为 NaN 时返回 ErrInvalidRate。
// nil option 返回 ErrNilOption。
//
// 当 context 中没有链标识时，采样器回退到随机采样（保持采样率语义但失去
// 一致性）。可通过 WithOnEmptyKey 注册回调来监控这类事件。
func NewChainKeySampler(rate float64, opts ...ChainKeyOption) (*ChainKeySampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	s := &ChainKeySampler{rate: rate}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(s)
	}
	return s, nil
}

func (s *ChainKeySampler) ShouldSample(ctx context.Context) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}

	// 设计决策: nil ctx 与缺失链标识同等处理——保持弹性，不因上下文缺失而 panic。
	// 随机回退保持了近似的采样率语义，只是失去了跨进程一致性。
	c, ok := xchain.ChainFrom(ctx)
	if !ok || c.ChainID == "" {
		if s.onEmptyKey != nil {
			s.onEmptyKey()
		}
		return randomFloat64() < s.rate
	}

	// 使用 xxhash 零分配确定性哈希
	// xxhash 是确定性的，同一链标识在所有进程中产生相同哈希值
	hashValue := xxhash.Sum64String(c.ChainID)

	// 将 hash 值归一化到 [0, 1] 区间
	// 设计决策: 此处使用 uint64/MaxUint64 归一化（与 randomFloat64 的 >>11 * floatScale
	// 不同），因为确定性哈希需要完整 uint64 值域的均匀映射。float64 精度有限，
	// hashValue == MaxUint64 时 normalized 可能等于 1.0，但 rate < 1 时（rate=1.0 有
	// 提前返回保护）normalized == 1.0 不会通过 normalized < rate，因此行为正确。
	normalized := float64(hashValue) / float64(math.MaxUint64)

	return normalized < s.rate
}

// Rate 返回当前采样比率
func (s *ChainKeySampler) Rate() float64 {
	return s.rate
}

// 确保实现了接口
var _ Sampler = (*ChainKeySampler)(nil)
