package xbatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/misurellig/chainkit/pkg/middleware/xwrap"
	"github.com/misurellig/chainkit/pkg/observability/xlog"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

// 调度器创建相关的错误
var (
	// ErrNilPipeline 表示注入的调用管道为 nil
	ErrNilPipeline = errors.New("xbatch: pipeline must not be nil")

	// ErrNilLogger 表示注入的 logger 为 nil
	ErrNilLogger = errors.New("xbatch: logger must not be nil")

	// ErrNilOption 表示传入了 nil option
	ErrNilOption = errors.New("xbatch: option must not be nil")

	// ErrInvalidConcurrency 表示并发上限不合法（必须 >= 1）
	ErrInvalidConcurrency = errors.New("xbatch: concurrency must be >= 1")

	// ErrNilHandler 表示记录处理函数为 nil
	ErrNilHandler = errors.New("xbatch: handler must not be nil")
)

// Handler 单条记录的应用处理函数
//
// ctx 携带该记录自己的链作用域；payload 是解码后的记录载荷。
type Handler func(ctx context.Context, payload []byte) error

// RecordResult 单条记录的结算结果
type RecordResult struct {
	// Index 记录在批次内的原始位置
	Index int

	// ChainID 该记录解析后的链标识，失败上报与重投递排查用
	ChainID string

	// Err 该记录的处理结果，nil 表示成功
	Err error
}

// Result 整批的聚合结果
//
// 所有记录结算（成功或失败被隔离记录）后才返回。
// 批次是否整体上报失败由外部重投递机制的契约决定，
// 这里只提供完整的结算视图。
type Result struct {
	// Records 与入站批次同序的逐记录结果
	Records []RecordResult
}

// Failed 返回所有失败记录的结果，保持原始顺序
func (r Result) Failed() []RecordResult {
	var failed []RecordResult
	for _, rec := range r.Records {
		if rec.Err != nil {
			failed = append(failed, rec)
		}
	}
	return failed
}

// Err 返回所有失败记录错误的聚合，全部成功时为 nil
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Records))
	for _, rec := range r.Records {
		if rec.Err != nil {
			errs = append(errs, fmt.Errorf("record %d (chain %s): %w", rec.Index, rec.ChainID, rec.Err))
		}
	}
	return errors.Join(errs...)
}

// Option 配置 Dispatcher 的可选参数
type Option func(*Dispatcher) error

// WithPipeline 注入记录级调用管道
//
// 每条记录作为一次独立的管道调用执行：自己的链作用域、
// 自己的看门狗、自己的恰好一次拆除。默认使用 xwrap.New()
// 的默认配置。
func WithPipeline(p *xwrap.Pipeline) Option {
	return func(d *Dispatcher) error {
		if p == nil {
			return ErrNilPipeline
		}
		d.pipeline = p
		return nil
	}
}

// WithConcurrency 设置批内并发上限
//
// 默认不限制（批内所有记录同时在飞）。n < 1 时返回
// ErrInvalidConcurrency。
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		d.concurrency = n
		return nil
	}
}

// WithLogger 注入调度器自身诊断使用的 logger
//
// 默认使用全局 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(d *Dispatcher) error {
		if l == nil {
			return ErrNilLogger
		}
		d.logger = l
		return nil
	}
}

// Dispatcher 批量扇出调度器
//
// 把一个入站批次拆成 N 个相互独立的工作单元并发执行。
// 每条记录解码自己的链上下文（同批记录可以属于不同的链）、
// 持有自己的链作用域，一条记录的失败不影响其余记录完成。
type Dispatcher struct {
	pipeline    *xwrap.Pipeline
	logger      xlog.Logger
	concurrency int
}

// NewDispatcher 创建批量扇出调度器
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.pipeline == nil {
		pipeline, err := xwrap.New()
		if err != nil {
			return nil, err
		}
		d.pipeline = pipeline
	}
	if d.logger == nil {
		d.logger = xlog.Default()
	}
	return d, nil
}

// Dispatch 并发执行批次内的所有记录并等待全部结算
//
// 每条记录经历完整的管道调用：解码该记录自己的链上下文、
// 解析采样决策、安装独立作用域、调用 h、拆除。记录内的
// panic 被管道捕获为该记录的失败，不波及其余记录。
//
// 返回的 Result 与入站批次同序。调用本身不返回 error：
// 逐记录错误在 Result 中，聚合策略交给调用方（Result.Err）。
func (d *Dispatcher) Dispatch(ctx context.Context, env xcodec.Envelope, h Handler) Result {
	result := Result{Records: make([]RecordResult, len(env.Records))}
	if h == nil {
		for i := range result.Records {
			result.Records[i] = RecordResult{Index: i, Err: ErrNilHandler}
		}
		return result
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// errgroup 只用作结构化等待与并发上限；逐记录错误按下标
	// 落入 result，不经由 Wait 返回，保证一条失败不打断其余记录。
	g := new(errgroup.Group)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}

	for i, rec := range env.Records {
		g.Go(func() error {
			in := rec.Inbound()
			_, err := d.pipeline.Invoke(ctx, in, rec.Data,
				func(hctx context.Context, payload any) (any, error) {
					data, _ := payload.([]byte)
					return nil, h(hctx, data)
				})
			result.Records[i] = RecordResult{
				Index:   i,
				ChainID: in.Chain.ChainID,
				Err:     err,
			}
			return nil
		})
	}
	// Wait 永远返回 nil，只为等待全部结算
	_ = g.Wait()

	if failed := result.Failed(); len(failed) > 0 {
		d.logger.Warn(ctx, "batch settled with failures",
			slog.Int("records", len(env.Records)),
			slog.Int("failed", len(failed)),
		)
	}
	return result
}

// DispatchRaw 解码原始批次数据后调度
//
// 批次信封本身无法解码是硬失败（整批交还外部重投递机制），
// 与逐记录失败不同，直接以 error 返回。
func (d *Dispatcher) DispatchRaw(ctx context.Context, data []byte, h Handler) (Result, error) {
	env, err := xcodec.DecodeEnvelope(data)
	if err != nil {
		return Result{}, err
	}
	return d.Dispatch(ctx, env, h), nil
}
