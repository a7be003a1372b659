package xcodec

import (
	"context"

	"github.com/misurellig/chainkit/pkg/context/xchain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// =============================================================================
// gRPC Metadata 常量
// =============================================================================

// Metadata Key 名称（遵循小写加连字符的 gRPC 惯例）
const (
	MetaChainID       = "x-chain-id"
	MetaParentHopID   = "x-parent-hop-id"
	MetaChainLength   = "x-chain-length"
	MetaDebugEnabled  = "x-debug-enabled"
	MetaDebugOverride = "x-debug-override"
)

// =============================================================================
// gRPC Metadata 提取
// =============================================================================

// ExtractFromMetadata 从 gRPC Metadata 解码链上下文。
func ExtractFromMetadata(md metadata.MD) Inbound {
	if md == nil {
		return DecodeAttributes(nil)
	}
	return DecodeAttributes(map[string]string{
		AttrChainID:       firstMetadataValue(md, MetaChainID),
		AttrParentHopID:   firstMetadataValue(md, MetaParentHopID),
		AttrChainLength:   firstMetadataValue(md, MetaChainLength),
		AttrDebugEnabled:  firstMetadataValue(md, MetaDebugEnabled),
		AttrDebugOverride: firstMetadataValue(md, MetaDebugOverride),
	})
}

// ExtractFromIncomingContext 从 incoming context 解码链上下文。
func ExtractFromIncomingContext(ctx context.Context) Inbound {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return DecodeAttributes(nil)
	}
	return ExtractFromMetadata(md)
}

// firstMetadataValue 取 metadata 中 key 的第一个值
func firstMetadataValue(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// =============================================================================
// gRPC Metadata 注入（出站传播）
// =============================================================================

// AppendToOutgoingContext 将当前链上下文传播到出站 gRPC 调用。
//
// 与 InjectToRequest 同语义：经 Next 派生下游视图后追加到 outgoing metadata。
// ctx 中没有链时原样返回。
func AppendToOutgoingContext(ctx context.Context) context.Context {
	c, ok := xchain.ChainFrom(ctx)
	if !ok {
		return ctx
	}
	attrs := EncodeAttributes(c.Next())

	kv := make([]string, 0, len(attrs)*2)
	if v, ok := attrs[AttrChainID]; ok {
		kv = append(kv, MetaChainID, v)
	}
	if v, ok := attrs[AttrParentHopID]; ok {
		kv = append(kv, MetaParentHopID, v)
	}
	kv = append(kv, MetaChainLength, attrs[AttrChainLength])
	if v, ok := attrs[AttrDebugEnabled]; ok {
		kv = append(kv, MetaDebugEnabled, v)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// GRPCUnaryClientInterceptor 返回自动注入链上下文的一元客户端拦截器。
func GRPCUnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(AppendToOutgoingContext(ctx), method, req, reply, cc, opts...)
	}
}

// GRPCStreamClientInterceptor 返回自动注入链上下文的流式客户端拦截器。
func GRPCStreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		return streamer(AppendToOutgoingContext(ctx), desc, cc, method, opts...)
	}
}
