package xcodec

import "errors"

var (
	// ErrInvalidEnvelope 批量信封本身损坏（非法 JSON）。
	//
	// 注意与单条记录的链元数据损坏区分：后者永不报错，按新链语义退化。
	ErrInvalidEnvelope = errors.New("xcodec: invalid batch envelope")
)
