package xcodec

import (
	"strconv"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// =============================================================================
// 属性 Key 常量
//
// 链上下文在三种传输形态（请求/响应头、批量流记录属性、发布订阅消息属性）
// 中只改变"载体"，Key 名称与语义完全一致。属性形态使用下划线 Key，
// HTTP/gRPC 形态的 Key 名见 header.go / grpc.go。
// =============================================================================

const (
	// AttrChainID 链标识
	AttrChainID = "chain_id"

	// AttrParentHopID 发送方（上一跳）的跳标识
	AttrParentHopID = "parent_hop_id"

	// AttrChainLength 链深度（十进制字符串）
	AttrChainLength = "chain_length"

	// AttrDebugEnabled 已落定的采样决策（"true"/"false"，未决不上线）
	AttrDebugEnabled = "debug_enabled"

	// AttrDebugOverride 调用方显式强制开启调试的信号（"true"/"1"）
	//
	// 与 AttrDebugEnabled 不同，override 不是链状态，而是入站请求携带的
	// 一次性指令，只在链起点参与决策解析，编码器从不输出它。
	AttrDebugOverride = "debug_override"
)

// maxIDLength 入站标识的长度上限。
//
// ChainID 对本包是不透明值（异构上游可能使用其他格式），原样继承；
// 但无界的入站值会放大日志与下游元数据，超限按损坏处理。
const maxIDLength = 128

// =============================================================================
// Inbound 解码结果
// =============================================================================

// Inbound 一次入站元数据的解码结果。
type Inbound struct {
	// Chain 解码出的链上下文。HopID 与 InvocationID 留空，
	// 由本跳在进入流水线时铸造（xchain.Chain.Begin）。
	Chain xchain.Chain

	// Override 上游是否显式强制开启调试日志
	Override bool

	// Fresh 元数据缺失/损坏、已按新链语义铸造
	Fresh bool
}

// =============================================================================
// 属性形态编解码（三种传输形态的公共核心）
// =============================================================================

// EncodeAttributes 将链上下文编码为属性键值对。
//
// 纯函数：只写入与解码器约定的最小 Key 集，空字段跳过，未决的采样决策不上线。
// 注意：编码的是参数给定的 Chain 本身；向下游传播前应先经 Chain.Next 派生
// （注入类辅助函数已内置该步骤）。
func EncodeAttributes(c xchain.Chain) map[string]string {
	attrs := make(map[string]string, 4)
	if c.ChainID != "" {
		attrs[AttrChainID] = c.ChainID
	}
	if c.ParentHopID != "" {
		attrs[AttrParentHopID] = c.ParentHopID
	}
	attrs[AttrChainLength] = strconv.Itoa(c.ChainLength)
	if s := c.Debug.String(); s != "" {
		attrs[AttrDebugEnabled] = s
	}
	return attrs
}

// DecodeAttributes 从属性键值对解码链上下文。
//
// 容错语义（绝不失败）：
//   - chain_id 缺失或超限 → 整体按新链处理（铸造 ChainID，深度 0，决策未决）
//   - chain_length 非法或为负 → 深度降级为 0，其余字段保留
//   - debug_enabled 非法 → 决策未决（交由采样引擎在链起点解析）
//
// 解码不铸造 HopID/InvocationID——它们属于执行本跳的进程，
// 进入流水线时由 Chain.Begin 补全。
func DecodeAttributes(attrs map[string]string) Inbound {
	id := attrs[AttrChainID]
	if id == "" || len(id) > maxIDLength {
		return Inbound{
			Chain:    xchain.Chain{ChainID: xchain.GenerateChainID()},
			Override: overrideSignal(attrs[AttrDebugOverride]),
			Fresh:    true,
		}
	}

	c := xchain.Chain{
		ChainID: id,
		Debug:   xchain.ParseDecision(attrs[AttrDebugEnabled]),
	}
	if p := attrs[AttrParentHopID]; len(p) <= maxIDLength {
		c.ParentHopID = p
	}
	if n, err := strconv.Atoi(attrs[AttrChainLength]); err == nil && n >= 0 {
		c.ChainLength = n
	}

	return Inbound{
		Chain:    c,
		Override: overrideSignal(attrs[AttrDebugOverride]),
	}
}

// overrideSignal 解析强制调试信号。
func overrideSignal(s string) bool {
	return s == "true" || s == "1"
}
