package xlog

import (
	"context"
	"log/slog"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// GateHandler Debug 级别的采样门控
//
// 采样日志的核心语义：一条链是否输出 Debug 日志，由链起点落定的采样决策
// 裁决一次，对整条链的每一跳都生效。门控只作用于 Debug 以下的级别；
// Info/Warn/Error 不参与采样，照常受配置级别约束。
//
// 设计决策: 决策落定为开时，Debug 日志绕过配置级别直接放行——生产环境
// 级别通常是 INFO，采样命中的那 1% 链正是要在不改配置的前提下拿到全量
// 调试输出。反之决策为关时即使配置级别是 DEBUG 也拦截，保证"未命中采样
// 的链不产生调试噪音"在两个方向上都成立。
//
// 设计决策: 无链作用域（如启动阶段、脚本）不做门控，退回配置级别判断。
// 作用域外的代码没有"链的决策"可依据，吞掉 Debug 会让本地调试无日志可看。
type GateHandler struct {
	base slog.Handler
}

// NewGateHandler 创建 GateHandler
func NewGateHandler(base slog.Handler) (*GateHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &GateHandler{base: base}, nil
}

// Enabled Debug 以下级别由链的采样决策裁决，其余级别委托底层 handler
func (h *GateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < slog.LevelInfo {
		if c, ok := xchain.ChainFrom(ctx); ok {
			return c.Debug.Enabled()
		}
	}
	return h.base.Enabled(ctx, level)
}

// Handle 委托给底层 handler
func (h *GateHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.base.Handle(ctx, r)
}

// WithAttrs 返回带额外属性的新 handler
func (h *GateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &GateHandler{base: h.base.WithAttrs(attrs)}
}

// WithGroup 返回带分组的新 handler
func (h *GateHandler) WithGroup(name string) slog.Handler {
	return &GateHandler{base: h.base.WithGroup(name)}
}
