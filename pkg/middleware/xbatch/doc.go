// Package xbatch 提供批量入站记录的并发扇出调度。
//
// 一个入站批次被拆成 N 个相互独立的工作单元：每条记录解码自己的
// 链上下文（同批记录可以属于不同的链）、在自己的链作用域内执行、
// 失败被隔离到本条记录。调度在所有记录结算后才返回，聚合结果
// 交由调用方决定是否整批上报失败（外部重投递机制的契约）。
//
// 记录级执行复用 xwrap 的调用管道，因此每条记录都获得完整的
// 管道保证：采样决策解析、恰好一次拆除、panic 隔离、看门狗。
//
// # 基本用法
//
//	dispatcher, err := xbatch.NewDispatcher(
//		xbatch.WithPipeline(pipeline),
//		xbatch.WithConcurrency(8),
//	)
//	if err != nil {
//		return err
//	}
//
//	result := dispatcher.Dispatch(ctx, envelope,
//		func(ctx context.Context, payload []byte) error {
//			return process(ctx, payload)
//		})
//	if err := result.Err(); err != nil {
//		return err // 交还外部重投递机制
//	}
package xbatch
