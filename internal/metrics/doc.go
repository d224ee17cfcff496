// Package metrics 封装 Prometheus 指标采集.
//
// 收集器覆盖识别/合成级联的请求量与耗时、会话数量与清扫、
// 降级建议次数以及压缩节省的字节数. 所有方法对 nil 接收者安全,
// 便于在不需要指标的场景直接传 nil.
package metrics
