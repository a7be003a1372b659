package xwrap_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/misurellig/chainkit/pkg/middleware/xwrap"
	"github.com/misurellig/chainkit/pkg/observability/xsample"
	"github.com/misurellig/chainkit/pkg/transport/xcodec"
)

func TestWatchdog_FiresBeforePlatformDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	var transitions []xwrap.State
	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithSafetyMargin(150*time.Millisecond),
		xwrap.WithOnTransition(func(s xwrap.State) {
			transitions = append(transitions, s)
		}))

	// 平台预算 200ms，安全余量 150ms：看门狗在 ~50ms 时触发。
	// 处理函数跑 120ms，晚于触发点但早于平台截止时间。
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := pipeline.Invoke(ctx, xcodec.DecodeAttributes(nil), nil,
		func(context.Context, any) (any, error) {
			time.Sleep(120 * time.Millisecond)
			return nil, nil
		})
	require.NoError(t, err)

	output := buf.String()
	assert.Equal(t, 1, strings.Count(output, "invocation approaching timeout"),
		"exactly one timeout diagnostic")
	assert.Contains(t, output, "chain_id=")

	// TimedOut 是旁路转移：处理函数照常完成
	assert.Contains(t, transitions, xwrap.StateTimedOut)
	assert.Contains(t, transitions, xwrap.StateCompleted)
}

func TestWatchdog_SilentWhenHandlerBeatsMargin(t *testing.T) {
	defer goleak.VerifyNone(t)

	var transitions []xwrap.State
	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithSafetyMargin(50*time.Millisecond),
		xwrap.WithOnTransition(func(s xwrap.State) {
			transitions = append(transitions, s)
		}))

	// 预算 300ms，余量 50ms：触发点在 ~250ms。处理函数 10ms 就完成，
	// 赶在触发点之前结束。恰好一次 Completed，零超时诊断。
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := pipeline.Invoke(ctx, xcodec.DecodeAttributes(nil), nil,
		func(context.Context, any) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return nil, nil
		})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "invocation approaching timeout")
	assert.NotContains(t, transitions, xwrap.StateTimedOut)

	completed := 0
	for _, s := range transitions {
		if s == xwrap.StateCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed, "exactly one Completed transition")
}

func TestWatchdog_DisarmedWithoutDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	var transitions []xwrap.State
	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithOnTransition(func(s xwrap.State) {
			transitions = append(transitions, s)
		}))

	_, err := pipeline.Invoke(context.Background(), xcodec.DecodeAttributes(nil), nil,
		func(context.Context, any) (any, error) {
			return nil, nil
		})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "invocation approaching timeout")
	assert.NotContains(t, transitions, xwrap.StateTimedOut)
}

func TestWatchdog_BudgetBelowMargin(t *testing.T) {
	defer goleak.VerifyNone(t)

	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithSafetyMargin(time.Second))

	// 剩余预算小于安全余量：诊断时机已过，看门狗保持解除并告警
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := pipeline.Invoke(ctx, xcodec.DecodeAttributes(nil), nil,
		func(context.Context, any) (any, error) {
			return nil, nil
		})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "watchdog not armed")
	assert.NotContains(t, output, "invocation approaching timeout")
}

func TestWatchdog_SerializedTransitionDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	// 回调不自带锁：TimedOut 来自各调用的看门狗 goroutine，
	// 与调用 goroutine 的转移并发，投递串行化是管道的契约。
	var transitions []xwrap.State
	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithSafetyMargin(80*time.Millisecond),
		xwrap.WithOnTransition(func(s xwrap.State) {
			transitions = append(transitions, s)
		}))

	const invocations = 8
	var wg sync.WaitGroup
	for i := 0; i < invocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// 预算 120ms，余量 80ms：触发点 ~40ms，处理函数 90ms 必然撞上
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
			defer cancel()

			_, err := pipeline.Invoke(ctx, xcodec.DecodeAttributes(nil), nil,
				func(context.Context, any) (any, error) {
					time.Sleep(90 * time.Millisecond)
					return nil, nil
				})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counts := map[xwrap.State]int{}
	for _, s := range transitions {
		counts[s]++
	}
	assert.Equal(t, invocations, counts[xwrap.StateTimedOut], "one TimedOut per invocation")
	assert.Equal(t, invocations, counts[xwrap.StateCompleted], "one Completed per invocation")
	assert.Equal(t, invocations, counts[xwrap.StateTornDown], "one TornDown per invocation")
	assert.Equal(t, invocations,
		strings.Count(buf.String(), "invocation approaching timeout"))
}

func TestWatchdog_FiredFlagInFailureDiagnostics(t *testing.T) {
	defer goleak.VerifyNone(t)

	pipeline, buf := newTestPipeline(t, xsample.Never(),
		xwrap.WithSafetyMargin(150*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := pipeline.Invoke(ctx, xcodec.DecodeAttributes(nil), nil,
		func(context.Context, any) (any, error) {
			time.Sleep(120 * time.Millisecond)
			return nil, context.DeadlineExceeded
		})
	require.Error(t, err)

	// 失败诊断标注看门狗是否已触发，便于区分普通失败与超时边缘失败
	assert.Contains(t, buf.String(), "deadline_warned=true")
}
