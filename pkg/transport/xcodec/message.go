package xcodec

import (
	"context"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// =============================================================================
// 发布订阅消息形态
//
// 投递/重试语义属于外部消息系统；本包只约定消息属性中链上下文的载体格式。
// =============================================================================

// Message 发布订阅消息。
type Message struct {
	// Body 消息负载
	Body []byte

	// Attributes 消息属性，链上下文的载体
	Attributes map[string]string
}

// NewMessage 构造向下游发布的消息。
//
// 从 ctx 读取当前链，经 Next 派生下游视图后写入消息属性。
// ctx 中没有链时属性为空映射（下游订阅方会按新链处理）。
func NewMessage(ctx context.Context, body []byte) Message {
	m := Message{Body: body, Attributes: map[string]string{}}
	if c, ok := xchain.ChainFrom(ctx); ok {
		m.Attributes = EncodeAttributes(c.Next())
	}
	return m
}

// Inbound 解码消息自带的链上下文。
//
// 属性缺失/损坏退化为新链，绝不失败。
func (m Message) Inbound() Inbound {
	return DecodeAttributes(m.Attributes)
}
