// Package xwrap 提供单次调用的中间件管道。
//
// 管道把一次平台调用串成固定的阶段序列：
//
//	解码入站链上下文 → 解析采样决策 → 安装链作用域 →
//	武装超时看门狗 → 调用应用逻辑 → 归一化结果 → 拆除作用域
//
// 核心正确性保证：
//   - 拆除恰好一次：正常返回、处理错误、panic、看门狗触发，
//     所有退出路径都会清理链作用域，复用的 worker 绝不继承
//     上一次调用的残留上下文
//   - 处理错误带全链上下文记录后原样返回，平台侧的失败/重试
//     计数不受中间件影响
//   - 处理 panic 被捕获为 ErrHandlerPanic 返回，宿主进程不死
//   - 看门狗在距平台截止时间还剩安全余量时发出恰好一条
//     "即将超时"诊断，从不主动中断任何工作
//
// # 基本用法
//
//	pipeline, err := xwrap.New(
//		xwrap.WithEngine(engine),
//		xwrap.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	resp, err := pipeline.Invoke(ctx, inbound, event,
//		func(ctx context.Context, event any) (any, error) {
//			return handle(ctx, event)
//		})
//
// HTTP 与 gRPC 服务端的入口适配分别见 HTTPMiddleware 与
// GRPCUnaryServerInterceptor / GRPCStreamServerInterceptor。
package xwrap
