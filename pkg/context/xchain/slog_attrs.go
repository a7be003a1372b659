package xchain

import (
	"context"
	"log/slog"
)

// =============================================================================
// slog 集成
// =============================================================================

// AppendChainAttrs 将 context 中的链信息追加到现有切片。
// 零分配热路径优化：传入预分配的切片，只追加已设置的字段。
//
// 无链作用域时追加 chain_id="unscoped" 占位属性，
// 保证日志在任何代码路径上都带有可检索的关联标记。
func AppendChainAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	c, ok := ChainFrom(ctx)
	if !ok {
		return append(attrs, slog.String(KeyChainID, UnscopedChainID))
	}
	return AppendAttrs(attrs, c)
}

// AppendAttrs 将链信息追加到现有切片。
//
// chain_id、chain_length、debug_enabled 始终输出（采样日志的三个必带字段），
// 其余字段仅在非空时输出。未决的 Debug 输出 false——对读日志的人而言
// "未决"与"关闭"的可见行为一致。
func AppendAttrs(attrs []slog.Attr, c Chain) []slog.Attr {
	attrs = append(attrs,
		slog.String(KeyChainID, c.ChainID),
		slog.Int(KeyChainLength, c.ChainLength),
		slog.Bool(KeyDebugEnabled, c.Debug.Enabled()),
	)
	if c.HopID != "" {
		attrs = append(attrs, slog.String(KeyHopID, c.HopID))
	}
	if c.ParentHopID != "" {
		attrs = append(attrs, slog.String(KeyParentHopID, c.ParentHopID))
	}
	if c.InvocationID != "" {
		attrs = append(attrs, slog.String(KeyInvocationID, c.InvocationID))
	}
	return attrs
}

// ChainAttrs 从 context 提取链信息，转换为 slog.Attr 切片。
//
// 注意：每次调用会分配新切片。热路径建议使用 AppendChainAttrs。
func ChainAttrs(ctx context.Context) []slog.Attr {
	return AppendChainAttrs(make([]slog.Attr, 0, chainFieldCount), ctx)
}
