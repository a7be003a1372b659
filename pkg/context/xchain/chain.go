package xchain

// =============================================================================
// 采样决策（三态）
// =============================================================================

// Decision 表示一条链的调试日志采样决策。
//
// 三态语义：未决（Unset）/ 已决为开（On）/ 已决为关（Off）。
// 决策只在链的起点解析一次，一旦落定（On/Off）即对整条链生效，
// 下游任何一跳都不得重新采样。
type Decision int8

// 采样决策常量
const (
	// DecisionUnset 尚未解析（新链的初始状态）
	DecisionUnset Decision = iota

	// DecisionOff 已决：不输出调试日志
	DecisionOff

	// DecisionOn 已决：输出调试日志
	DecisionOn
)

// Resolved 判断决策是否已落定（On 或 Off）。
func (d Decision) Resolved() bool {
	return d == DecisionOn || d == DecisionOff
}

// Enabled 判断调试日志是否开启。未决视为关闭。
func (d Decision) Enabled() bool {
	return d == DecisionOn
}

// String 返回决策的字符串表示，用于日志和线上格式。
//
// 未决返回空字符串——编码器据此跳过该字段，保持"未决不上线"的语义。
func (d Decision) String() string {
	switch d {
	case DecisionOn:
		return "true"
	case DecisionOff:
		return "false"
	default:
		return ""
	}
}

// ParseDecision 从线上格式解析采样决策。
//
// 容错语义：只认 "true"/"false"（以及 "1"/"0" 的宽松形式），
// 其余任何值（包括空串、乱码）都按未决处理，绝不报错——
// 上游元数据损坏不应导致本跳失败。
func ParseDecision(s string) Decision {
	switch s {
	case "true", "1":
		return DecisionOn
	case "false", "0":
		return DecisionOff
	default:
		return DecisionUnset
	}
}

// =============================================================================
// Chain 链上下文模型
// =============================================================================

// 日志/属性 Key 常量（下划线分隔，跨传输形态统一）
const (
	KeyChainID      = "chain_id"
	KeyHopID        = "hop_id"
	KeyParentHopID  = "parent_hop_id"
	KeyChainLength  = "chain_length"
	KeyDebugEnabled = "debug_enabled"
	KeyInvocationID = "invocation_id"

	// chainFieldCount 链字段数量（用于 slog 属性预分配）
	chainFieldCount = 6
)

// UnscopedChainID 无链作用域时日志使用的占位标识。
//
// 日志器在任何未安装链上下文的代码路径上仍需可用（不得 panic、不得丢关联字段），
// 此时以该占位值标记，便于在日志检索中发现上下文传播断裂。
const UnscopedChainID = "unscoped"

// Chain 一次调用所携带的链上下文。
//
// 一条"链"是服务一次逻辑事务的全部调用序列（例如一次页面点击触发的 N 次调用），
// 链内每次调用称为一"跳"。Chain 对当前跳而言是不可变值对象：
// 构造完成后只读，向下游传播时通过 Next 派生新值，绝不原地修改。
//
// 字段不变式：
//   - ChainID 一经观测到就不再重新生成（超长保护重置除外，见 xsample.Engine）
//   - Debug 一旦落定（On/Off）后沿链只传播、不再采样
//   - ChainLength 沿链任意路径单调不减，每跳恰好 +1
//   - InvocationID 只用于本跳自身的日志关联，从不传播
type Chain struct {
	// ChainID 整条链共享的不透明标识（32 位小写十六进制）
	ChainID string

	// ParentHopID 上一跳的跳标识，起点跳为空
	ParentHopID string

	// HopID 本跳的跳标识（16 位小写十六进制）
	HopID string

	// ChainLength 链深度计数，起点为 0，每跳 +1
	ChainLength int

	// Debug 调试日志采样决策（三态）
	Debug Decision

	// InvocationID 本次调用的唯一标识，从不写入出站元数据
	InvocationID string
}

// New 铸造一条新链的起点跳。
//
// 适用于入站元数据缺失/损坏的场景：ChainID/HopID/InvocationID 全新生成，
// ChainLength 为 0，Debug 保持未决（交由采样引擎解析）。
func New() Chain {
	return Chain{
		ChainID:      GenerateChainID(),
		HopID:        GenerateHopID(),
		ChainLength:  0,
		Debug:        DecisionUnset,
		InvocationID: NewInvocationID(),
	}
}

// IsZero 判断是否为零值（未初始化）。
func (c Chain) IsZero() bool {
	return c.ChainID == "" && c.HopID == "" && c.ParentHopID == "" &&
		c.ChainLength == 0 && c.Debug == DecisionUnset && c.InvocationID == ""
}

// Next 派生向下游传播的链视图。
//
// 下游视角：ChainID 与 Debug 原样继承，本跳成为下游的父跳
// （ParentHopID = c.HopID），深度 +1。HopID 与 InvocationID 留空，
// 由下游自行铸造（见 Begin）——跳标识属于执行该跳的进程，不在线上传输。
func (c Chain) Next() Chain {
	return Chain{
		ChainID:     c.ChainID,
		ParentHopID: c.HopID,
		ChainLength: c.ChainLength + 1,
		Debug:       c.Debug,
	}
}

// Begin 补全本跳的本地标识。
//
// 对解码自入站元数据的 Chain 调用：铸造缺失的 HopID 与 InvocationID，
// 已存在的字段原样保留。ChainID 缺失时整体退化为新链（New 语义），
// 这是"入站上下文损坏绝不致命"策略的最后一道防线。
func (c Chain) Begin() Chain {
	if c.ChainID == "" {
		return New()
	}
	if c.HopID == "" {
		c.HopID = GenerateHopID()
	}
	if c.InvocationID == "" {
		c.InvocationID = NewInvocationID()
	}
	return c
}
