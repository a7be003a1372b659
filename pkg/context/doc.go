// Package context 提供上下文与链路身份管理相关的子包。
//
// 子包列表：
//   - xchain: 链路关联身份（链/跳/调用三层标识）与链作用域管理
//
// 设计原则：
//   - 所有链路信息通过 context.Context 传递，不使用全局变量
//   - 链标识格式兼容 W3C Trace Context（trace-id/span-id）
//   - 作用域失效后残留引用自动退化，绝不归因错误的链
package context
