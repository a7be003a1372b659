package xcodec

import (
	"context"

	"github.com/misurellig/chainkit/pkg/context/xchain"

	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// OpenTelemetry 桥接
//
// 本仓库不自建 span 树——完整的分布式追踪交给外部追踪后端，这里只负责
// "喂给"它：ChainID/HopID 沿用 W3C 尺寸（见 xchain），可直接映射为
// trace.SpanContext 作为远端父节点，使后端把后续 span 挂到同一条链上。
// =============================================================================

// SpanContextFromChain 从链上下文派生 OpenTelemetry SpanContext。
//
// 仅当 ChainID/HopID 恰好是合法的 W3C 格式（32/16 位十六进制、非全零）时成功；
// 异构上游传来的其他格式返回 ok=false，调用方应跳过桥接而非报错——
// 链传播本身不依赖追踪后端。
//
// 已落定为开的采样决策映射为 FlagsSampled，保证强制调试的链
// 在追踪后端侧不被丢弃。
func SpanContextFromChain(c xchain.Chain) (trace.SpanContext, bool) {
	traceID, err := trace.TraceIDFromHex(c.ChainID)
	if err != nil {
		return trace.SpanContext{}, false
	}
	spanID, err := trace.SpanIDFromHex(c.HopID)
	if err != nil {
		return trace.SpanContext{}, false
	}

	var flags trace.TraceFlags
	if c.Debug.Enabled() {
		flags = trace.FlagsSampled
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	return sc, sc.IsValid()
}

// ContextWithChainSpan 将当前链作为远端父 span 挂到 context。
//
// 业务代码随后用任何 otel Tracer 开启的 span 都会归入该链。
// ctx 中没有链、或链标识不是 W3C 格式时原样返回。
func ContextWithChainSpan(ctx context.Context) context.Context {
	c, ok := xchain.ChainFrom(ctx)
	if !ok {
		return ctx
	}
	sc, ok := SpanContextFromChain(c)
	if !ok {
		return ctx
	}
	return trace.ContextWithSpanContext(ctx, sc)
}
