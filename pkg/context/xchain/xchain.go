package xchain

import "errors"

// =============================================================================
// Context Key 类型定义
// =============================================================================

// 设计决策: contextKey 使用 string 而非 int+iota，理由如下：
//   - 作为包私有类型，不会与其他包的 context key 冲突（Go context 比较包含类型信息）
//   - 字符串值在调试/日志中可读性高，便于排查 context 传播问题
type contextKey string

// keyChain 当前调用的链上下文持有者
const keyChain = contextKey("xchain:chain")

// =============================================================================
// 通用错误
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xchain: nil context")

	// ErrMissingChain 表示 context 中没有安装链上下文。
	ErrMissingChain = errors.New("xchain: missing chain")
)
