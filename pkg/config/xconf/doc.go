// Package xconf 提供基于 koanf 的配置加载能力。
//
// 支持 YAML 和 JSON 两种格式，可从文件或字节数据创建。
// 配置在进程启动时读取一次；调整配置走重新部署，不提供运行时刷新。
//
// Settings 承载子系统的全部运行参数（采样比率、日志级别/格式、
// 看门狗安全余量、链长度上限）。配置项非法时逐项回退到默认值并
// 在 warn 级别记录一次——配置错误只影响诊断质量，绝不让进程起不来。
//
// # 基本用法
//
//	cfg, err := xconf.New("config.yaml")
//	if err != nil {
//		return err
//	}
//	settings := xconf.LoadSettings(ctx, cfg, logger)
//
// 更复杂的读取直接使用底层 koanf 实例：
//
//	port := cfg.Client().Int("server.port")
package xconf
