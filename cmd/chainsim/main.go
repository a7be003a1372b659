// chainsim 是链路关联与采样子系统的演练工具。
//
// 用法:
//
//	chainsim [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config         配置文件路径（yaml/json，可选）
//	-r, --rate           采样比率，覆盖配置文件 (0.0~1.0)
//	-d, --deterministic  使用基于链标识的确定性采样
//	-l, --level          日志级别 (debug/info/warn/error)
//
// 命令:
//
//	simulate   模拟多跳链路：同步调用 → 批式分发 → 订阅消费
//	sample     批量评估采样决策，对比观测比率与配置比率
//	decode     解码一组出站元数据键值对并打印链上下文
//	help       显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败
//	2: 参数错误（非法比率、未知命令等）
//
// 示例:
//
//	chainsim simulate --chains 5 --hops 3      # 5 条链各走 3 跳
//	chainsim -r 0.5 -d sample --chains 10000   # 确定性采样比率评估
//	chainsim decode chain_id=0123456789abcdef0123456789abcdef chain_length=2
//	chainsim -c /etc/chainkit.yaml simulate    # 从配置文件取运行参数
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "chainsim",
		Usage:   "链路关联与采样子系统演练工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（yaml/json）",
			},
			&cli.Float64Flag{
				Name:    "rate",
				Aliases: []string{"r"},
				Usage:   "采样比率，覆盖配置文件",
				Value:   -1, // 负值表示未指定
			},
			&cli.BoolFlag{
				Name:    "deterministic",
				Aliases: []string{"d"},
				Usage:   "使用基于链标识的确定性采样",
			},
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "日志级别，覆盖配置文件",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if _, ok := err.(cli.ExitCoder); ok {
			// ExitErrHandler 已输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
