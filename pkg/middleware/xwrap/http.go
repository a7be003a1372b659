package xwrap

import (
	"context"
	"net/http"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

// HTTPMiddleware 返回运行完整管道的 HTTP 中间件
//
// 入站请求头经 xcodec 解码为链上下文（缺失/损坏退化为新链），
// 采样决策解析后链作用域装入请求 context，下游处理器及其发起的
// 出站调用（xcodec.InjectToRequest / Transport）从中派生传播视图。
//
// 响应头回写 X-Chain-ID，便于调用方关联日志。
// 处理器 panic 被管道捕获并以 500 响应，进程不受影响。
func (p *Pipeline) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in := xcodec.ExtractFromRequest(r)

			_, err := p.Invoke(r.Context(), in, r, func(ctx context.Context, _ any) (any, error) {
				if c, ok := xchain.ChainFrom(ctx); ok {
					w.Header().Set(xcodec.HeaderChainID, c.ChainID)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil, nil
			})
			if err != nil {
				// 只有 panic 恢复会走到这里（ServeHTTP 不返回错误）。
				// 响应可能已部分写出，Error 尽力而为。
				http.Error(w, http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
			}
		})
	}
}
