// Package xlog 提供链路感知的结构化日志能力。
//
// 基于标准库 log/slog 封装，提供：
//   - Logger 接口：强制 ctx 传递的最小日志接口（Debug/Info/Warn/Error/Stack）
//   - Builder：链式配置构建器（输出、级别、格式、轮转、错误回调）
//   - EnrichHandler：自动从 context 注入链路标识（chain_id、hop_id 等），
//     无链作用域时注入 chain_id=unscoped 占位标记
//   - GateHandler：按链路采样决策门控 debug 日志输出
//   - 全局 Logger：脚手架/小工具场景的便利入口
//
// # 采样门控语义
//
// 在链作用域内，debug 日志是否输出完全由当前链的采样决策决定：
// 被选中的链即使全局级别是 info 也输出 debug；未被选中的链即使
// 全局级别是 debug 也不输出。info 及以上级别不受门控影响。
// 作用域外回退到全局级别判断。
//
// 设计决策: 门控在 Enabled 阶段生效，被拦截的 debug 日志不产生
// 任何格式化与序列化开销，未采样链路上的调试日志近乎零成本。
//
// # 基本用法
//
//	logger, cleanup, err := xlog.New().
//		SetFormat("json").
//		SetLevelString("info").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "request handled", slog.String("path", "/orders"))
//
// # 日志轮转
//
//	logger, cleanup, err := xlog.New().
//		SetRotation("/var/log/app.log",
//			xlog.WithMaxSizeMB(100),
//			xlog.WithMaxBackups(5),
//			xlog.WithCompress(true)).
//		Build()
//
// 日志器在任何代码路径上都不会 panic：内部写入错误通过 SetOnError
// 回调暴露，默认静默计数。
package xlog
