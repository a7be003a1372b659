package xsample

import "errors"

// 采样器与决策引擎创建相关的错误
var (
	// ErrInvalidRate 表示采样比率不在 [0.0, 1.0] 范围内
	ErrInvalidRate = errors.New("xsample: rate must be in [0.0, 1.0]")

	// ErrInvalidMaxChainLength 表示链长度上限不合法（必须 >= 1）
	ErrInvalidMaxChainLength = errors.New("xsample: max chain length must be >= 1")

	// ErrNilSampler 表示注入的采样器为 nil
	ErrNilSampler = errors.New("xsample: sampler must not be nil")

	// ErrNilLogger 表示注入的 logger 为 nil
	ErrNilLogger = errors.New("xsample: logger must not be nil")

	// ErrNilOption 表示传入了 nil option
	ErrNilOption = errors.New("xsample: option must not be nil")
)
