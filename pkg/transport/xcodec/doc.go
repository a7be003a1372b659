// Package xcodec 提供链上下文在各传输形态元数据中的编解码。
//
// 链上下文跨进程传播时依赖三种传输形态各自的原生元数据通道：
//
//   - 请求/响应调用：HTTP Header（header.go）/ gRPC Metadata（grpc.go）
//   - 批量流记录：记录级属性映射（record.go）
//   - 发布订阅消息：消息属性映射（message.go）
//
// 三种形态只改变 Key 的"载体"，Key 名称与语义完全一致；属性映射形态
// （codec.go 的 EncodeAttributes/DecodeAttributes）是公共核心。
//
// # 编解码契约
//
//   - encode 是纯函数，只输出与解码器约定的最小 Key 集
//   - decode(encode(c)) == c（对传播字段集，往返恒等）
//   - decode 对缺失/损坏的元数据绝不失败，退化为新链语义
//   - 跳本地标识（HopID/InvocationID）不在线上传输，解码后由
//     xchain.Chain.Begin 铸造
//
// # 传播派生
//
// 注入类辅助函数（InjectToRequest、AppendToOutgoingContext、NewMessage）
// 在编码前自动经 xchain.Chain.Next 派生下游视图：本跳成为下游的父跳，
// 深度 +1，已落定的采样决策原样携带。
//
// # OpenTelemetry 桥接
//
// otel.go 把链上下文映射为远端父 SpanContext，喂给外部追踪后端；
// 本仓库自身不构建 span 树。
package xcodec
