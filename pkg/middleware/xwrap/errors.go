package xwrap

import "errors"

// 管道装配与执行相关的错误
var (
	// ErrNilHandler 表示待包装的应用处理函数为 nil
	ErrNilHandler = errors.New("xwrap: handler must not be nil")

	// ErrNilEngine 表示注入的采样决策引擎为 nil
	ErrNilEngine = errors.New("xwrap: engine must not be nil")

	// ErrNilLogger 表示注入的 logger 为 nil
	ErrNilLogger = errors.New("xwrap: logger must not be nil")

	// ErrNilOption 表示传入了 nil option
	ErrNilOption = errors.New("xwrap: option must not be nil")

	// ErrInvalidMargin 表示看门狗安全余量不合法（必须 > 0）
	ErrInvalidMargin = errors.New("xwrap: safety margin must be positive")

	// ErrHandlerPanic 表示应用处理函数发生了 panic
	//
	// panic 被管道捕获后以该错误包装返回，宿主进程不会被杀死。
	ErrHandlerPanic = errors.New("xwrap: handler panicked")
)
