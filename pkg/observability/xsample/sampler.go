package xsample

import (
	"context"
	"math"
)

// Sampler 采样策略接口
//
// 采样器用于决定某条链是否开启调试日志。
// 返回 true 表示选中，false 表示跳过。
type Sampler interface {
	// ShouldSample 判断是否应该选中当前链
	//
	// ctx 携带采样决策所需的上下文信息（如链标识），
	// 供 ChainKeySampler 等策略使用。
	// ctx 不得为 nil；如需占位请使用 context.TODO()。
	ShouldSample(ctx context.Context) bool
}

// validateRate 校验采样比率在 [0.0, 1.0] 范围内且不为 NaN
func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}
