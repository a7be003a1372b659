package xchain

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// =============================================================================
// ID 格式常量
//
// ChainID/HopID 沿用 W3C Trace Context 的尺寸（128-bit / 64-bit 小写十六进制），
// 使其可以不经转换直接喂给 OpenTelemetry 后端（见 xcodec 的 otel 桥接）。
// =============================================================================

const (
	// ChainIDSize 128-bit (16 bytes) -> 32 hex chars
	ChainIDSize = 16

	// HopIDSize 64-bit (8 bytes) -> 16 hex chars
	HopIDSize = 8
)

// isAllZeros 检查字节切片是否全为零
// W3C 规范禁止全零的 trace-id / span-id，ChainID/HopID 沿用同一约束
func isAllZeros(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// GenerateChainID 生成新的链标识。
//
// 格式: 32 位小写十六进制字符串 (128-bit)
// 示例: "0af7651916cd43dd8448eb211c80319c"
//
// Panic 策略说明：如果底层熵源不可用（极罕见的系统级错误），函数会 panic。
// crypto/rand 失败意味着系统无法提供安全随机数，此状态下服务应立即终止，
// 而非静默降级为可预测的标识。
func GenerateChainID() string {
	var buf [ChainIDSize]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("xchain: crypto/rand.Read failed: " + err.Error())
		}
		if !isAllZeros(buf[:]) {
			return hex.EncodeToString(buf[:])
		}
		// 全零情况极其罕见（概率 2^-128），重新生成
	}
}

// GenerateHopID 生成新的跳标识。
//
// 格式: 16 位小写十六进制字符串 (64-bit)
// 示例: "b7ad6b7169203331"
func GenerateHopID() string {
	var buf [HopIDSize]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("xchain: crypto/rand.Read failed: " + err.Error())
		}
		if !isAllZeros(buf[:]) {
			return hex.EncodeToString(buf[:])
		}
	}
}

// NewInvocationID 生成本次调用的唯一标识。
//
// 使用 UUID v4。InvocationID 只参与本跳日志关联、从不传播，
// 因此无需与 ChainID/HopID 保持同一格式。
func NewInvocationID() string {
	return uuid.NewString()
}
