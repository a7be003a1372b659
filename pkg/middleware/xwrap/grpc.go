package xwrap

import (
	"context"

	"google.golang.org/grpc"

	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

// GRPCUnaryServerInterceptor 返回运行完整管道的 gRPC 一元服务端拦截器
//
// 入站 metadata 经 xcodec 解码为链上下文，业务处理函数在链作用域内
// 执行。客户端侧的传播由 xcodec.GRPCUnaryClientInterceptor 负责。
func (p *Pipeline) GRPCUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		in := xcodec.ExtractFromIncomingContext(ctx)
		return p.Invoke(ctx, in, req, func(hctx context.Context, event any) (any, error) {
			return handler(hctx, event)
		})
	}
}

// GRPCStreamServerInterceptor 返回运行完整管道的 gRPC 流式服务端拦截器
//
// 整个流视为一次调用：作用域覆盖流的完整生命周期，流结束时拆除。
func (p *Pipeline) GRPCStreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		in := xcodec.ExtractFromIncomingContext(ss.Context())
		_, err := p.Invoke(ss.Context(), in, srv, func(hctx context.Context, _ any) (any, error) {
			return nil, handler(srv, &scopedServerStream{ServerStream: ss, ctx: hctx})
		})
		return err
	}
}

// scopedServerStream 以链作用域 context 覆盖原始流 context
type scopedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *scopedServerStream) Context() context.Context {
	return s.ctx
}
