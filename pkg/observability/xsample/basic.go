package xsample

import "context"

// alwaysSampler 全采样策略
type alwaysSampler struct{}

// alwaysSamplerInstance 全采样单例
var alwaysSamplerInstance = &alwaysSampler{}

// Always 返回全采样策略
//
// 返回的采样器总是返回 true，即所有链都开启调试日志。
// 适用于本地调试或需要完整诊断数据的场景。
func Always() Sampler {
	return alwaysSamplerInstance
}

func (s *alwaysSampler) ShouldSample(_ context.Context) bool {
	return true
}

// neverSampler 不采样策略
type neverSampler struct{}

// neverSamplerInstance 不采样单例
var neverSamplerInstance = &neverSampler{}

// Never 返回不采样策略
//
// 返回的采样器总是返回 false，即不会主动为任何链开启调试日志。
// 上游显式 override 不经过采样器，不受此策略影响。
func Never() Sampler {
	return neverSamplerInstance
}

func (s *neverSampler) ShouldSample(_ context.Context) bool {
	return false
}

// RateSampler 固定比率随机采样策略
//
// 按照指定的比率进行随机采样。例如 rate=0.01 表示约 1% 的链
// 会被选中开启调试日志。
//
// 设计决策: 工厂函数返回具体类型而非 Sampler 接口，因为 Rate() 方法提供了
// 有用的自省能力（如日志、调试），这些无法通过 Sampler 接口获得。
type RateSampler struct {
	rate float64
}

// NewRateSampler 创建固定比率采样器
//
// rate 表示采样比率，范围 [0.0, 1.0]：
//   - rate=0.0: 等同于 Never()
//   - rate=1.0: 等同于 Always()
//   - rate=0.01: 约 1% 的链会被选中
//
// rate 超出 [0.0, 1.0] 范围或为 NaN 时返回 ErrInvalidRate。
func NewRateSampler(rate float64) (*RateSampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	return &RateSampler{rate: rate}, nil
}

func (s *RateSampler) ShouldSample(_ context.Context) bool {
	if s.rate <= 0 {
		return false
	}
	if s.rate >= 1 {
		return true
	}
	return randomFloat64() < s.rate
}

// Rate 返回当前采样比率
func (s *RateSampler) Rate() float64 {
	return s.rate
}

// 确保实现了接口
var (
	_ Sampler = (*alwaysSampler)(nil)
	_ Sampler = (*neverSampler)(nil)
	_ Sampler = (*RateSampler)(nil)
)
