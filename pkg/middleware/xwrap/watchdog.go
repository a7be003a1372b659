package xwrap

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/misurellig/chainkit/pkg/context/xchain"
)

// watchdog 超时看门狗
//
// 在距平台截止时间还剩安全余量的时刻与处理函数的完成赛跑：
// 处理函数先完成则静默解除；定时器先到则发出恰好一条
// "即将超时"的 error 级诊断。看门狗从不杀死任何东西，
// 实际的终止由平台执行，它只保证被杀之前日志已经存在。
type watchdog struct {
	timer    *time.Timer
	done     chan struct{}
	settled  chan struct{}
	didFire  atomic.Bool
	disarmed atomic.Bool
}

// disarmedWatchdog 无截止时间时共享的解除态哨兵
var disarmedWatchdog = func() *watchdog {
	wd := &watchdog{}
	wd.disarmed.Store(true)
	return wd
}()

// armWatchdog 武装看门狗
//
// ctx 无截止时间，或扣除安全余量后已无剩余预算时，返回解除态的
// 看门狗（后者意味着诊断时机已过，补发无意义）。
func (p *Pipeline) armWatchdog(ctx context.Context, c xchain.Chain) *watchdog {
	deadline, ok := ctx.Deadline()
	if !ok {
		return disarmedWatchdog
	}
	fireIn := time.Until(deadline) - p.margin
	if fireIn <= 0 {
		p.logger.Warn(ctx, "remaining budget below safety margin, watchdog not armed",
			slog.Duration("remaining", time.Until(deadline)),
			slog.Duration("safety_margin", p.margin),
		)
		return disarmedWatchdog
	}

	wd := &watchdog{
		done:    make(chan struct{}),
		settled: make(chan struct{}),
	}
	wd.timer = time.NewTimer(fireIn)

	go func() {
		defer close(wd.settled)
		select {
		case <-wd.timer.C:
			wd.didFire.Store(true)
			p.transition(StateTimedOut)
			p.logger.Error(ctx, "invocation approaching timeout",
				slog.String("chain_id", c.ChainID),
				slog.Int("chain_length", c.ChainLength),
				slog.Duration("safety_margin", p.margin),
				slog.Time("platform_deadline", deadline),
			)
		case <-wd.done:
		}
	}()

	return wd
}

// disarm 解除看门狗并等待其 goroutine 退出
//
// 幂等。先完成的处理函数走 done 分支让定时器作废；
// 已触发的看门狗此处只做资源回收，诊断不会撤回。
func (wd *watchdog) disarm() {
	if !wd.disarmed.CompareAndSwap(false, true) {
		return
	}
	close(wd.done)
	wd.timer.Stop()
	<-wd.settled
}

// fired 返回看门狗是否已发出超时诊断
func (wd *watchdog) fired() bool {
	return wd.didFire.Load()
}
