package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/misurellig/chainkit/pkg/config/xconf"
	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/middleware/xbatch"
	"github.com/misurellig/chainkit/pkg/middleware/xwrap"
	"github.com/misurellig/chainkit/pkg/observability/xlog"
	"github.com/misurellig/chainkit/pkg/observability/xsample"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

// usageError 表示参数错误（退出码 2）。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// runtime 聚合一次命令执行所需的全部组件。
type runtime struct {
	settings xconf.Settings
	logger   xlog.LoggerWithLevel
	cleanup  func() error
	engine   *xsample.Engine
	pipeline *xwrap.Pipeline
}

// loadRuntime 按「配置文件 → 命令行覆盖 → 组件装配」的顺序构建运行环境。
func loadRuntime(ctx context.Context, cmd *cli.Command) (*runtime, error) {
	settings := xconf.DefaultSettings()
	if path := cmd.String("config"); path != "" {
		cfg, err := xconf.New(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		settings = xconf.LoadSettings(ctx, cfg, nil)
	}

	// 命令行参数优先于配置文件
	if rate := cmd.Float64("rate"); rate >= 0 {
		if rate > 1 {
			return nil, &usageError{msg: fmt.Sprintf("采样比率 %v 超出 [0.0, 1.0]", rate)}
		}
		settings.Sampling.Rate = rate
	}
	if cmd.Bool("deterministic") {
		settings.Sampling.Deterministic = true
	}
	if level := cmd.String("level"); level != "" {
		if _, err := xlog.ParseLevel(level); err != nil {
			return nil, &usageError{msg: fmt.Sprintf("非法日志级别 %q", level)}
		}
		settings.Log.Level = level
	}

	logger, cleanup, err := xlog.New().
		SetLevelString(settings.Log.Level).
		SetFormat(settings.Log.Format).
		Build()
	if err != nil {
		return nil, fmt.Errorf("构建 logger 失败: %w", err)
	}

	var sampler xsample.Sampler
	if settings.Sampling.Deterministic {
		sampler, err = xsample.NewChainKeySampler(settings.Sampling.Rate)
	} else {
		sampler, err = xsample.NewRateSampler(settings.Sampling.Rate)
	}
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("构建采样器失败: %w", err)
	}

	engine, err := xsample.NewEngine(
		xsample.WithSampler(sampler),
		xsample.WithMaxChainLength(settings.Chain.MaxLength),
		xsample.WithLogger(logger),
	)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("构建采样引擎失败: %w", err)
	}

	pipeline, err := xwrap.New(
		xwrap.WithEngine(engine),
		xwrap.WithLogger(logger),
		xwrap.WithSafetyMargin(settings.SafetyMarginDuration()),
	)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("构建中间件管道失败: %w", err)
	}

	return &runtime{
		settings: settings,
		logger:   logger,
		cleanup:  cleanup,
		engine:   engine,
		pipeline: pipeline,
	}, nil
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createSimulateCommand(),
		createSampleCommand(),
		createDecodeCommand(),
	}
}

// =============================================================================
// simulate: 三种传输形态的链路演练
// =============================================================================

// chainTrace 汇总一条链在整个演练中的观测结果。
type chainTrace struct {
	mu       sync.Mutex
	observed []xchain.Chain
}

func (t *chainTrace) record(c xchain.Chain) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observed = append(t.observed, c)
}

// createSimulateCommand 创建 simulate 子命令。
//
// 链路形态：同步调用逐跳递归 → 末跳产出批记录 → 批式分发 → 订阅消费。
// 全程走真实的编解码与中间件路径，不走任何捷径。
func createSimulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "模拟多跳链路：同步调用 → 批式分发 → 订阅消费",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "chains",
				Usage: "模拟的链数",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "hops",
				Usage: "每条链的同步跳数",
				Value: 3,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := loadRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.cleanup() }()

			chains := cmd.Int("chains")
			hops := cmd.Int("hops")
			if chains < 1 || hops < 1 {
				return &usageError{msg: "chains 与 hops 必须为正整数"}
			}
			return cmdSimulate(ctx, env, chains, hops)
		},
	}
}

func cmdSimulate(ctx context.Context, env *runtime, chains, hops int) error {
	trace := &chainTrace{}
	client := &http.Client{Transport: xcodec.Transport(nil)}

	// 同步阶段：服务端处理完本跳后递归调用自身作为下一跳，
	// 出站元数据由 Transport 按当前作用域注入。
	var serverURL string
	handler := func(w http.ResponseWriter, r *http.Request) {
		c, _ := xchain.ChainFrom(r.Context())
		trace.record(c)

		remaining, _ := strconv.Atoi(r.URL.Query().Get("remaining"))
		if remaining > 0 {
			req, err := http.NewRequestWithContext(r.Context(),
				http.MethodGet, serverURL+"?remaining="+strconv.Itoa(remaining-1), nil)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		w.WriteHeader(http.StatusNoContent)
	}

	server := httptest.NewServer(env.pipeline.HTTPMiddleware()(http.HandlerFunc(handler)))
	defer server.Close()
	serverURL = server.URL

	for i := 0; i < chains; i++ {
		req, err := http.NewRequestWithContext(ctx,
			http.MethodGet, serverURL+"?remaining="+strconv.Itoa(hops-1), nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("同步阶段失败: %w", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}

	// 末跳汇总：每条链取最深一跳作为批记录的上游
	deepest := map[string]xchain.Chain{}
	trace.mu.Lock()
	syncHops := len(trace.observed)
	for _, c := range trace.observed {
		if prev, ok := deepest[c.ChainID]; !ok || c.ChainLength > prev.ChainLength {
			deepest[c.ChainID] = c
		}
	}
	trace.mu.Unlock()

	// 批式阶段：每条链一条记录，经分发器逐条恢复链作用域
	records := make([]xcodec.Record, 0, len(deepest))
	for _, c := range deepest {
		records = append(records, xcodec.NewRecord([]byte("batch-payload"), c.Next()))
	}
	dispatcher, err := xbatch.NewDispatcher(
		xbatch.WithPipeline(env.pipeline),
		xbatch.WithLogger(env.logger),
	)
	if err != nil {
		return err
	}
	batchResult := dispatcher.Dispatch(ctx, xcodec.Envelope{Records: records},
		func(hctx context.Context, _ []byte) error {
			c, _ := xchain.ChainFrom(hctx)
			trace.record(c)
			return nil
		})
	if err := batchResult.Err(); err != nil {
		return fmt.Errorf("批式阶段失败: %w", err)
	}

	// 订阅阶段：批处理记录的链继续流入发布消息，订阅侧解码后再走一遍管道
	trace.mu.Lock()
	batchHops := trace.observed[syncHops:]
	trace.mu.Unlock()
	for _, c := range batchHops {
		mctx, err := xchain.WithChain(ctx, c)
		if err != nil {
			return err
		}
		msg := xcodec.NewMessage(mctx, []byte("event-payload"))
		if _, err := env.pipeline.Invoke(ctx, msg.Inbound(), msg.Body,
			func(hctx context.Context, _ any) (any, error) {
				hc, _ := xchain.ChainFrom(hctx)
				trace.record(hc)
				return nil, nil
			}); err != nil {
			return fmt.Errorf("订阅阶段失败: %w", err)
		}
	}

	printSimulationSummary(trace, chains, hops)
	return nil
}

// printSimulationSummary 按链聚合观测结果并输出到标准输出。
func printSimulationSummary(trace *chainTrace, chains, hops int) {
	trace.mu.Lock()
	defer trace.mu.Unlock()

	type summary struct {
		hops     int
		maxDepth int
		debug    bool
	}
	byChain := map[string]*summary{}
	order := make([]string, 0, chains)
	for _, c := range trace.observed {
		s, ok := byChain[c.ChainID]
		if !ok {
			s = &summary{}
			byChain[c.ChainID] = s
			order = append(order, c.ChainID)
		}
		s.hops++
		if c.ChainLength > s.maxDepth {
			s.maxDepth = c.ChainLength
		}
		if c.Debug.Enabled() {
			s.debug = true
		}
	}

	sampled := 0
	fmt.Printf("模拟完成: %d 条链 × %d 个同步跳 + 批式分发 + 订阅消费\n\n", chains, hops)
	for _, id := range order {
		s := byChain[id]
		mark := "-"
		if s.debug {
			mark = "debug"
			sampled++
		}
		fmt.Printf("  %s  跳数=%d  最大深度=%d  %s\n", id, s.hops, s.maxDepth, mark)
	}
	fmt.Printf("\n调试采样命中: %d/%d\n", sampled, len(order))
}

// =============================================================================
// sample: 采样比率评估
// =============================================================================

func createSampleCommand() *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "批量评估采样决策，对比观测比率与配置比率",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "chains",
				Usage: "评估的链数",
				Value: 10000,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := loadRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.cleanup() }()

			chains := cmd.Int("chains")
			if chains < 1 {
				return &usageError{msg: "chains 必须为正整数"}
			}
			return cmdSample(ctx, env, chains)
		},
	}
}

func cmdSample(ctx context.Context, env *runtime, chains int) error {
	hit := 0
	for i := 0; i < chains; i++ {
		c := env.engine.Resolve(ctx, xchain.New(), false)
		if c.Debug.Enabled() {
			hit++
		}
	}

	mode := "随机"
	if env.settings.Sampling.Deterministic {
		mode = "确定性"
	}
	fmt.Printf("采样模式: %s\n", mode)
	if rate, ok := env.engine.SampleRate(); ok {
		fmt.Printf("配置比率: %.4f\n", rate)
	}
	fmt.Printf("观测比率: %.4f (%d/%d)\n", float64(hit)/float64(chains), hit, chains)
	return nil
}

// =============================================================================
// decode: 出站元数据解码
// =============================================================================

func createDecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "解码一组出站元数据键值对并打印链上下文",
		ArgsUsage: "key=value [key=value ...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdDecode(cmd.Args().Slice())
		},
	}
}

func cmdDecode(args []string) error {
	attrs := map[string]string{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return &usageError{msg: fmt.Sprintf("参数 %q 不是 key=value 形式", arg)}
		}
		attrs[key] = value
	}

	in := xcodec.DecodeAttributes(attrs)
	out := struct {
		ChainID     string `json:"chain_id"`
		ParentHopID string `json:"parent_hop_id,omitempty"`
		ChainLength int    `json:"chain_length"`
		Debug       string `json:"debug"`
		Override    bool   `json:"override"`
		Fresh       bool   `json:"fresh"`
	}{
		ChainID:     in.Chain.ChainID,
		ParentHopID: in.Chain.ParentHopID,
		ChainLength: in.Chain.ChainLength,
		Debug:       in.Chain.Debug.String(),
		Override:    in.Override,
		Fresh:       in.Fresh,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
