package xlog_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/misurellig/chainkit/pkg/context/xchain"
	"github.com/misurellig/chainkit/pkg/observability/xlog"
)

// gatedLogger 构造带采样门控的 logger，返回 logger 与输出缓冲
func gatedLogger(t *testing.T, level xlog.Level) (xlog.LoggerWithLevel, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&buf).
		SetLevel(level).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)
	return logger, &buf
}

// chainContext 构造携带指定调试决策的链作用域 context
func chainContext(t *testing.T, debug xchain.Decision) context.Context {
	t.Helper()
	chain := xchain.New()
	chain.Debug = debug
	ctx, err := xchain.WithChain(context.Background(), chain)
	if err != nil {
		t.Fatalf("WithChain() error: %v", err)
	}
	return ctx
}

func TestGate_DebugEnabledChainBypassesThreshold(t *testing.T) {
	// 全局级别 info，但链被采样选中：debug 必须输出
	logger, buf := gatedLogger(t, xlog.LevelInfo)
	ctx := chainContext(t, xchain.DecisionOn)

	logger.Debug(ctx, "sampled debug line")

	if !strings.Contains(buf.String(), "sampled debug line") {
		t.Errorf("debug on a sampled chain must bypass the info threshold\noutput: %s", buf.String())
	}
}

func TestGate_DebugDisabledChainSuppressesDebug(t *testing.T) {
	// 全局级别 debug，但链未被选中：debug 必须静默
	logger, buf := gatedLogger(t, xlog.LevelDebug)
	ctx := chainContext(t, xchain.DecisionOff)

	logger.Debug(ctx, "unsampled debug line")

	if strings.Contains(buf.String(), "unsampled debug line") {
		t.Errorf("debug on an unsampled chain must be suppressed even at debug level\noutput: %s", buf.String())
	}
}

func TestGate_UnresolvedChainSuppressesDebug(t *testing.T) {
	// 决策未定时视同未选中
	logger, buf := gatedLogger(t, xlog.LevelDebug)
	ctx := chainContext(t, xchain.DecisionUnset)

	logger.Debug(ctx, "undecided debug line")

	if strings.Contains(buf.String(), "undecided debug line") {
		t.Errorf("debug on an unresolved chain must be suppressed\noutput: %s", buf.String())
	}
}

func TestGate_OutsideScopeFallsBackToThreshold(t *testing.T) {
	tests := []struct {
		name  string
		level xlog.Level
		want  bool
	}{
		{"debug threshold passes", xlog.LevelDebug, true},
		{"info threshold filters", xlog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := gatedLogger(t, tt.level)

			logger.Debug(context.Background(), "unscoped debug line")

			got := strings.Contains(buf.String(), "unscoped debug line")
			if got != tt.want {
				t.Errorf("unscoped debug output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGate_InfoAndAboveUnaffected(t *testing.T) {
	// 门控只作用于 debug；未被选中的链上 info/warn/error 照常输出
	logger, buf := gatedLogger(t, xlog.LevelInfo)
	ctx := chainContext(t, xchain.DecisionOff)

	logger.Info(ctx, "info passes")
	logger.Warn(ctx, "warn passes")
	logger.Error(ctx, "error passes")

	output := buf.String()
	for _, want := range []string{"info passes", "warn passes", "error passes"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q on an unsampled chain\noutput: %s", want, output)
		}
	}
}

func TestGate_ClearedScopeFallsBackToThreshold(t *testing.T) {
	// 作用域清理后，残留 context 引用视同作用域外
	logger, buf := gatedLogger(t, xlog.LevelInfo)

	chain := xchain.New()
	chain.Debug = xchain.DecisionOn
	scope, err := xchain.NewScope(context.Background(), chain)
	if err != nil {
		t.Fatalf("NewScope() error: %v", err)
	}
	ctx := scope.Context()
	scope.Clear()

	logger.Debug(ctx, "residual debug line")

	if strings.Contains(buf.String(), "residual debug line") {
		t.Errorf("debug via a cleared scope must fall back to the info threshold\noutput: %s", buf.String())
	}
}
