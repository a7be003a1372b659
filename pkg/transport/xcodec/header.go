package xcodec

import (
	"context"
	"net/http"
	"strings"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// =============================================================================
// HTTP Header 常量
// =============================================================================

// HTTP Header 名称（与属性 Key 一一对应）
const (
	HeaderChainID       = "X-Chain-ID"
	HeaderParentHopID   = "X-Parent-Hop-ID"
	HeaderChainLength   = "X-Chain-Length"
	HeaderDebugEnabled  = "X-Debug-Enabled"
	HeaderDebugOverride = "X-Debug-Override"
)

// =============================================================================
// HTTP Header 提取
// =============================================================================

// ExtractFromHeader 从 HTTP Header 解码链上下文。
//
// 与 DecodeAttributes 同一容错语义：Header 缺失/损坏绝不失败，退化为新链。
func ExtractFromHeader(h http.Header) Inbound {
	if h == nil {
		return DecodeAttributes(nil)
	}
	return DecodeAttributes(map[string]string{
		AttrChainID:       strings.TrimSpace(h.Get(HeaderChainID)),
		AttrParentHopID:   strings.TrimSpace(h.Get(HeaderParentHopID)),
		AttrChainLength:   strings.TrimSpace(h.Get(HeaderChainLength)),
		AttrDebugEnabled:  strings.TrimSpace(h.Get(HeaderDebugEnabled)),
		AttrDebugOverride: strings.TrimSpace(h.Get(HeaderDebugOverride)),
	})
}

// ExtractFromRequest 从 HTTP Request 解码链上下文。
func ExtractFromRequest(r *http.Request) Inbound {
	if r == nil {
		return DecodeAttributes(nil)
	}
	return ExtractFromHeader(r.Header)
}

// =============================================================================
// HTTP Header 注入（跨服务传播）
// =============================================================================

// InjectToHeader 将链上下文写入 HTTP Header。
//
// 纯编码：写入的是参数给定的 Chain 本身，不做 Next 派生。
func InjectToHeader(h http.Header, c xchain.Chain) {
	if h == nil {
		return
	}
	attrs := EncodeAttributes(c)
	if v, ok := attrs[AttrChainID]; ok {
		h.Set(HeaderChainID, v)
	}
	if v, ok := attrs[AttrParentHopID]; ok {
		h.Set(HeaderParentHopID, v)
	}
	h.Set(HeaderChainLength, attrs[AttrChainLength])
	if v, ok := attrs[AttrDebugEnabled]; ok {
		h.Set(HeaderDebugEnabled, v)
	}
}

// InjectToRequest 将当前链上下文传播到出站 HTTP 请求。
//
// 从 ctx 读取当前链，经 Next 派生下游视图后写入请求 Header：
// 本跳成为下游的父跳，深度 +1，已落定的采样决策原样携带。
// ctx 中没有链时不写任何 Header（调用点在链作用域之外）。
func InjectToRequest(ctx context.Context, req *http.Request) {
	if req == nil {
		return
	}
	c, ok := xchain.ChainFrom(ctx)
	if !ok {
		return
	}
	// 防止调用方构造 &http.Request{} 导致 nil Header panic
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	InjectToHeader(req.Header, c.Next())
}

// =============================================================================
// http.RoundTripper 自动注入
// =============================================================================

// Transport 在出站请求上自动注入链上下文的 http.RoundTripper 装饰器。
//
// 用法：
//
//	client := &http.Client{Transport: xcodec.Transport(nil)}
//
// base 为 nil 时使用 http.DefaultTransport。
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &chainTransport{base: base}
}

type chainTransport struct {
	base http.RoundTripper
}

// RoundTrip 实现 http.RoundTripper。
//
// 按 RoundTripper 契约不修改调用方的请求，克隆后注入。
func (t *chainTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, ok := xchain.ChainFrom(req.Context()); ok {
		req = req.Clone(req.Context())
		InjectToRequest(req.Context(), req)
	}
	return t.base.RoundTrip(req)
}
