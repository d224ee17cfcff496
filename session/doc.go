// Package session 实现语音交互的会话编排.
//
// 编排器把识别级联与合成级联组合成面向调用方的单一入口, 并维护
// 每个会话的轻量上下文: 当前语言, 输入方式, 连续失败计数和有界
// 的最近交互历史. 语音识别连续失败达到阈值时, 编排器在错误上
// 附带一次性的降级建议, 提示调用方切换到文本输入.
//
// 会话上下文只在内存中保存, 闲置超时后由 ExpireStaleSessions
// 清扫. 编排器不启动后台 goroutine, 清扫节奏由宿主决定.
package session
