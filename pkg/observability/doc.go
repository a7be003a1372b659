// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，按链决策门控调试输出
//   - xsample: 链级调试采样决策引擎与采样策略
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 自动从 context 中提取链路信息注入日志
//   - 采样决策在链起点一次落定，沿链只传播、不再重采
package observability
