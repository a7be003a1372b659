package xwrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/observability/xlog"
	"github.com/misurellig/chainkit/pkg/observability/xsample"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

// DefaultSafetyMargin 看门狗默认安全余量
//
// 在距平台截止时间还剩该余量时触发"即将超时"诊断，
// 给日志落盘留出时间窗口。
const DefaultSafetyMargin = 500 * time.Millisecond

// State 单次调用在管道内的状态
//
// 状态只沿一个方向推进：
//
//	Idle → ContextInstalled → WatchdogArmed → HandlerRunning
//	     → {Completed | Failed} → TornDown
//
// TimedOut 是旁路状态：看门狗触发只追加诊断，不中断
// HandlerRunning 的推进。
type State int8

const (
	StateIdle State = iota
	StateContextInstalled
	StateWatchdogArmed
	StateHandlerRunning
	StateCompleted
	StateFailed
	StateTimedOut
	StateTornDown
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateContextInstalled:
		return "context_installed"
	case StateWatchdogArmed:
		return "watchdog_armed"
	case StateHandlerRunning:
		return "handler_running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("state(%d)", int8(s))
	}
}

// Handler 应用逻辑边界
//
// ctx 携带当前调用的链作用域，应用代码与日志器从中读取链上下文。
// 返回值 resp 是可归一化的响应体；事件型处理函数返回 nil 表示无响应。
type Handler func(ctx context.Context, event any) (resp any, err error)

// Option 配置 Pipeline 的可选参数
type Option func(*Pipeline) error

// WithEngine 注入采样决策引擎
//
// 默认使用 xsample.NewEngine() 的默认配置。
func WithEngine(e *xsample.Engine) Option {
	return func(p *Pipeline) error {
		if e == nil {
			return ErrNilEngine
		}
		p.engine = e
		return nil
	}
}

// WithLogger 注入管道诊断使用的 logger
//
// 默认使用全局 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(p *Pipeline) error {
		if l == nil {
			return ErrNilLogger
		}
		p.logger = l
		return nil
	}
}

// WithSafetyMargin 设置看门狗安全余量
//
// d <= 0 时返回 ErrInvalidMargin。
func WithSafetyMargin(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return ErrInvalidMargin
		}
		p.margin = d
		return nil
	}
}

// WithOnTransition 注册状态转移回调
//
// 回调在转移发生的 goroutine 上同步执行，应保持轻量。
// TimedOut 由看门狗 goroutine 推进，投递经互斥串行化，
// 回调实现无需自带同步。用于测试与指标接入。nil 回调会被忽略。
func WithOnTransition(fn func(State)) Option {
	return func(p *Pipeline) error {
		if fn != nil {
			p.onTransition = fn
		}
		return nil
	}
}

// Pipeline 调用管道
//
// 每次调用按固定顺序执行：解码入站链上下文 → 解析采样决策 →
// 安装链作用域 → 武装超时看门狗 → 调用应用逻辑 → 归一化结果 →
// 记录终态诊断 → 拆除作用域。
//
// 拆除是无条件的且恰好执行一次：正常返回、处理错误、panic、
// 看门狗触发，所有退出路径都会走到。
type Pipeline struct {
	engine       *xsample.Engine
	logger       xlog.Logger
	margin       time.Duration
	onTransition func(State)

	// transitionMu 串行化回调投递：TimedOut 来自看门狗 goroutine，
	// 与调用 goroutine 的转移之间需要 happens-before 边
	transitionMu sync.Mutex
}

// New 创建调用管道
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		margin: DefaultSafetyMargin,
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.engine == nil {
		engine, err := xsample.NewEngine()
		if err != nil {
			return nil, err
		}
		p.engine = engine
	}
	if p.logger == nil {
		p.logger = xlog.Default()
	}
	return p, nil
}

// transition 推进状态并通知回调
func (p *Pipeline) transition(s State) {
	if p.onTransition == nil {
		return
	}
	p.transitionMu.Lock()
	defer p.transitionMu.Unlock()
	p.onTransition(s)
}

// Invoke 执行一次完整的管道调用
//
// in 是传输编解码层产出的入站链上下文（xcodec.Extract* 系列），
// event 是原始平台事件，原样传给应用处理函数。
//
// 处理函数的错误会带全链上下文记录在 error 级别后原样返回，
// 平台侧的失败/重试计数不受影响。处理函数 panic 被捕获并以
// ErrHandlerPanic 包装返回，宿主进程不会被杀死。
func (p *Pipeline) Invoke(ctx context.Context, in xcodec.Inbound, event any, h Handler) (resp any, err error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.transition(StateIdle)

	// 补全本跳标识并解析采样决策
	chain := in.Chain.Begin()
	chain = p.engine.Resolve(ctx, chain, in.Override)

	// 安装链作用域
	scope, err := xchain.NewScope(ctx, chain)
	if err != nil {
		return nil, fmt.Errorf("xwrap: install chain scope: %w", err)
	}
	p.transition(StateContextInstalled)

	// 拆除必须恰好一次地覆盖所有退出路径，包括下面 handler 的 panic 路径
	defer func() {
		scope.Clear()
		p.transition(StateTornDown)
	}()

	hctx := scope.Context()

	// 武装看门狗：无平台截止时间则保持解除状态
	wd := p.armWatchdog(hctx, chain)
	defer wd.disarm()
	p.transition(StateWatchdogArmed)

	p.transition(StateHandlerRunning)
	resp, err = p.invokeHandler(hctx, event, h)

	if err != nil {
		p.transition(StateFailed)
		p.logger.Error(hctx, "handler failed",
			slog.Any("error", err),
			slog.Bool("deadline_warned", wd.fired()),
		)
		return nil, err
	}

	p.transition(StateCompleted)
	if in.Fresh {
		p.logger.Debug(hctx, "handled as chain origin")
	}
	return resp, nil
}

// invokeHandler 调用应用逻辑并隔离 panic
func (p *Pipeline) invokeHandler(ctx context.Context, event any, h Handler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			p.logger.Stack(ctx, "handler panic recovered", slog.Any("panic", r))
		}
	}()
	return h(ctx, event)
}
