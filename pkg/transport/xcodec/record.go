package xcodec

import (
	"encoding/json"
	"fmt"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// =============================================================================
// 批量流记录形态
//
// 外部采集方投递的批量信封：一组按序排列、各自携带不透明负载与属性映射的
// 记录。负载在 JSON 线上格式中是 base64（encoding/json 对 []byte 的标准行为）。
// 同一信封内的记录可以属于不同的链——每条记录独立解码自己的链上下文。
// =============================================================================

// Record 批量信封中的一条记录。
type Record struct {
	// Data 不透明负载（JSON 线上格式为 base64）
	Data []byte `json:"data"`

	// Attributes 记录级属性，链上下文的载体
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Envelope 一批入站记录。
//
// 信封内记录的顺序是投递顺序；处理顺序不保证与之一致
// （分发器并发处理各记录，见 xbatch）。
type Envelope struct {
	Records []Record `json:"records"`
}

// DecodeEnvelope 解析批量信封。
//
// 信封本身损坏（非法 JSON）返回 ErrInvalidEnvelope——这是采集方契约层面的
// 错误，与单条记录的链元数据损坏（永不失败，见 Record.Inbound）不同。
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	return env, nil
}

// Inbound 解码记录自带的链上下文。
//
// 记录属性缺失/损坏退化为新链，绝不失败。
func (r Record) Inbound() Inbound {
	return DecodeAttributes(r.Attributes)
}

// NewRecord 构造携带链上下文的出站记录。
//
// 纯编码：写入的是参数给定的 Chain 本身，不做 Next 派生。
func NewRecord(payload []byte, c xchain.Chain) Record {
	return Record{
		Data:       payload,
		Attributes: EncodeAttributes(c),
	}
}
