package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// ErrNilHandler 当装饰器的 base handler 为 nil 时返回
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 自动从 context 提取链上下文并注入日志
//
// 装饰模式实现，包装底层 slog.Handler，在 Handle() 时自动添加
// chain_id、chain_length、debug_enabled（必带三字段）以及
// hop_id、parent_hop_id、invocation_id（非空时）。
//
// 无链作用域的调用点注入 chain_id="unscoped" 占位标记——
// 日志器在任何代码路径上都不得失败，也不得产出无法关联的裸日志。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 创建 EnrichHandler
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

// Enabled 委托给底层 handler
func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// maxEnrichAttrs 最大注入属性数量（chain 6 字段）
const maxEnrichAttrs = 6

// Handle 在调用底层 handler 前，从 context 提取链上下文
//
// 重要：根据 slog 契约，必须 Clone record 后再修改，避免影响其他 handler。
// ctx 为 nil 时安全退化为 unscoped 标记（xchain 函数内部处理了 nil ctx）。
//
// 性能优化：使用栈数组 [maxEnrichAttrs]slog.Attr 避免热路径堆分配
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := xchain.AppendChainAttrs(buf[:0], ctx)

	if len(attrs) > 0 {
		// Clone record 后再修改，符合 slog 契约
		r = r.Clone()
		r.AddAttrs(attrs...)
	}

	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{
		base: h.base.WithAttrs(attrs),
	}
}

// WithGroup 返回带分组的新 handler
func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{
		base: h.base.WithGroup(name),
	}
}
