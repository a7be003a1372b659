package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureStdout 执行 fn 并收集其写入标准输出的内容。
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read captured stdout: %v", err)
	}
	return buf.String(), runErr
}

// runApp 以给定参数执行 CLI 并返回标准输出与错误。
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureStdout(t, func() error {
		return createApp().Run(context.Background(), append([]string{"chainsim"}, args...))
	})
}

func TestCreateApp_Commands(t *testing.T) {
	app := createApp()
	for _, name := range []string{"simulate", "sample", "decode"} {
		found := false
		for _, cmd := range app.Commands {
			if cmd.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestSampleCommand_FullRate(t *testing.T) {
	out, err := runApp(t, "-r", "1", "sample", "--chains", "50")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !strings.Contains(out, "(50/50)") {
		t.Errorf("full rate must hit every chain, output:\n%s", out)
	}
	if !strings.Contains(out, "配置比率: 1.0000") {
		t.Errorf("missing configured rate line, output:\n%s", out)
	}
	if !strings.Contains(out, "采样模式: 随机") {
		t.Errorf("missing mode line, output:\n%s", out)
	}
}

func TestSampleCommand_DeterministicZeroRate(t *testing.T) {
	out, err := runApp(t, "-r", "0", "-d", "sample", "--chains", "50")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !strings.Contains(out, "(0/50)") {
		t.Errorf("zero rate must hit no chain, output:\n%s", out)
	}
	if !strings.Contains(out, "采样模式: 确定性") {
		t.Errorf("missing deterministic mode line, output:\n%s", out)
	}
}

func TestSampleCommand_InvalidChains(t *testing.T) {
	_, err := runApp(t, "sample", "--chains", "0")
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("err = %v, want usage error", err)
	}
}

func TestGlobalFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"rate_above_one", []string{"-r", "1.5", "sample"}},
		{"bad_level", []string{"-l", "verbose", "sample"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			var usageErr *usageError
			if !errors.As(err, &usageErr) {
				t.Fatalf("err = %v, want usage error", err)
			}
		})
	}
}

func TestConfigFileDrivesSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainkit.yaml")
	if err := os.WriteFile(path, []byte("sampling:\n  rate: 1.0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runApp(t, "-c", path, "sample", "--chains", "20")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !strings.Contains(out, "(20/20)") {
		t.Errorf("config rate 1.0 must hit every chain, output:\n%s", out)
	}
}

func TestSimulateCommand(t *testing.T) {
	out, err := runApp(t, "-r", "1", "simulate", "--chains", "2", "--hops", "2")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "调试采样命中: 2/2") {
		t.Errorf("full rate must mark every chain, output:\n%s", out)
	}
	if !strings.Contains(out, "2 条链 × 2 个同步跳") {
		t.Errorf("missing summary header, output:\n%s", out)
	}
}

func TestSimulateCommand_InvalidArgs(t *testing.T) {
	_, err := runApp(t, "simulate", "--hops", "0")
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("err = %v, want usage error", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	out, err := runApp(t, "decode",
		"chain_id=0123456789abcdef0123456789abcdef",
		"parent_hop_id=0123456789abcdef",
		"chain_length=2",
		"debug_enabled=true",
	)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, want := range []string{
		`"chain_id": "0123456789abcdef0123456789abcdef"`,
		`"chain_length": 2`,
		`"debug": "true"`,
		`"fresh": false`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s, output:\n%s", want, out)
		}
	}
}

func TestDecodeCommand_FreshWithoutChainID(t *testing.T) {
	out, err := runApp(t, "decode", "chain_length=3")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out, `"fresh": true`) {
		t.Errorf("missing chain id must decode as fresh chain, output:\n%s", out)
	}
}

func TestDecodeCommand_BadArgument(t *testing.T) {
	_, err := runApp(t, "decode", "no-equals-sign")
	var usageErr *usageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("err = %v, want usage error", err)
	}
}
