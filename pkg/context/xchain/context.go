package xchain

import (
	"context"
	"sync/atomic"
)

// =============================================================================
// 持有者（holder）
//
// 设计决策: context 中存放 *holder 指针而非 Chain 值，使 Scope.Clear 能够
// 对"已安装的上下文"做显式失效。Go 的 context 值本身不可变，单看取值语义
// 并不需要 Clear；但链作用域的核心正确性要求是"任何退出路径都先清理、
// 复用的执行单元绝不继承陈旧上下文"。通过 holder 上的原子标记，
// 清理后任何残留的 context 引用读到的都是"无链"，契约由实现保证而非约定。
// =============================================================================

type holder struct {
	chain   Chain
	cleared atomic.Bool
}

// =============================================================================
// 安装 / 读取
// =============================================================================

// WithChain 将链上下文安装到 context。
//
// 如果 ctx 为 nil，返回 ErrNilContext。
// 返回的 context 中的链对读取方不可变；需要生命周期管理时请使用 NewScope。
func WithChain(ctx context.Context, c Chain) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyChain, &holder{chain: c}), nil
}

// ChainFrom 从 context 读取当前链上下文。
//
// 零值安全：ctx 为 nil、未安装或作用域已清理时返回 (Chain{}, false)。
func ChainFrom(ctx context.Context) (Chain, bool) {
	if ctx == nil {
		return Chain{}, false
	}
	h, ok := ctx.Value(keyChain).(*holder)
	if !ok || h.cleared.Load() {
		return Chain{}, false
	}
	return h.chain, true
}

// GetChain 从 context 读取当前链上下文，缺失时返回零值。
//
// 语义同 ChainFrom，适用于不关心存在性的调用点。
func GetChain(ctx context.Context) Chain {
	c, _ := ChainFrom(ctx)
	return c
}

// RequireChain 从 context 读取链上下文，不存在则返回错误。
//
// 如果 ctx 为 nil，返回 ErrNilContext；未安装或已清理返回 ErrMissingChain。
func RequireChain(ctx context.Context) (Chain, error) {
	if ctx == nil {
		return Chain{}, ErrNilContext
	}
	c, ok := ChainFrom(ctx)
	if !ok {
		return Chain{}, ErrMissingChain
	}
	return c, nil
}

// EnsureChain 确保 context 中存在链上下文。
//
// 已存在则原样返回；否则铸造新链（New + 本跳标识）并安装。
// 适用于绕过中间件直接执行业务逻辑的入口（如脚本、测试）。
func EnsureChain(ctx context.Context) (context.Context, Chain, error) {
	if ctx == nil {
		return nil, Chain{}, ErrNilContext
	}
	if c, ok := ChainFrom(ctx); ok {
		return ctx, c, nil
	}
	c := New()
	nctx, err := WithChain(ctx, c)
	if err != nil {
		return nil, Chain{}, err
	}
	return nctx, c, nil
}

// =============================================================================
// Scope 链作用域
// =============================================================================

// Scope 一次调用的链作用域句柄。
//
// 中间件在调用开始时通过 NewScope 安装链上下文，在所有退出路径
// （正常返回、错误、panic、超时）上调用 Clear。Clear 幂等且恰好生效一次：
// 首次调用返回 true，其后返回 false——调用方可据此断言清理契约。
//
// 并发的调用单元各自持有独立的 Scope（见 xbatch），互不可见。
type Scope struct {
	ctx context.Context
	h   *holder
}

// NewScope 创建链作用域并安装链上下文。
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func NewScope(ctx context.Context, c Chain) (*Scope, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	h := &holder{chain: c}
	return &Scope{
		ctx: context.WithValue(ctx, keyChain, h),
		h:   h,
	}, nil
}

// Context 返回安装了链上下文的 context。
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Chain 返回作用域持有的链上下文。
//
// 已清理的作用域返回零值。
func (s *Scope) Chain() Chain {
	if s.h.cleared.Load() {
		return Chain{}
	}
	return s.h.chain
}

// Clear 清理作用域。
//
// 幂等：首次调用执行清理并返回 true，后续调用返回 false。
// 清理后，持有该作用域 context 的任何代码再读链上下文都会得到"未安装"。
func (s *Scope) Clear() bool {
	return s.h.cleared.CompareAndSwap(false, true)
}

// Cleared 判断作用域是否已清理。
func (s *Scope) Cleared() bool {
	return s.h.cleared.Load()
}
