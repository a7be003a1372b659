// Package xchain 提供跨调用链传播的关联上下文管理。
//
// 一条"链"（chain）是服务一次逻辑事务的全部调用序列，链内每次调用是一"跳"（hop）。
// 本包定义链上下文的值对象 Chain、基于 context.Context 的作用域存取，
// 以及供日志系统使用的属性提取。
//
// # 核心不变式
//
//   - ChainID 一经观测到绝不重新生成
//   - 采样决策（Debug）一旦落定，沿链只传播、不再采样
//   - ChainLength 每跳恰好 +1，单调不减
//   - InvocationID 只属于本跳，从不传播
//   - 任何退出路径都先清理作用域，复用的执行单元绝不继承陈旧上下文
//
// # 命名约定（与本仓库其他包一致）
//
//	WithChain(ctx, c)   - 注入：将链上下文写入 context
//	ChainFrom(ctx)      - 读取：返回 (Chain, ok)
//	GetChain(ctx)       - 读取：缺失时返回零值
//	RequireChain(ctx)   - 强制读取：缺失时返回错误
//	EnsureChain(ctx)    - 确保存在：缺失时铸造新链并注入
//	NewScope(ctx, c)    - 作用域：带显式 Clear 生命周期的注入
//
// # 哨兵错误
//
//	ErrNilContext   - context 为 nil
//	ErrMissingChain - 链上下文缺失
package xchain
