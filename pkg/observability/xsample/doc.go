// Package xsample 提供链级调试日志的采样决策能力。
//
// 核心是 Engine：每条链只做一次"是否开启调试日志"的决策，
// 决策结果随链上下文传播到所有下游调用，绝不重新采样。
//
// # 决策优先级
//
//  1. 入站元数据携带显式 override 信号 → 强制开启
//  2. 上游已解析的决策 → 原样沿用（传播，不是再采样）
//  3. 链源头 → 按配置比率采样一次并标记为已解析
//
// 链长度超过健全性上限（默认 20）的入站上下文视为传播故障的产物，
// 丢弃其链标识、重置为新链并记录告警。
//
// # 采样策略
//
//   - Always/Never：全开/全关
//   - RateSampler：crypto/rand 随机采样
//   - ChainKeySampler：对链标识做确定性哈希，同一条链在所有进程中
//     产生相同决策
//
// # 基本用法
//
//	engine, err := xsample.NewEngine(
//		xsample.WithSampler(mustChainKeySampler(0.01)),
//	)
//	if err != nil {
//		return err
//	}
//	chain = engine.Resolve(ctx, chain, inbound.Override)
package xsample
