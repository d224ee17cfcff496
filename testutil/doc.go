/*
Package testutil 提供语音编排层测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试与基准测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。所有测试应优先使用此包
中的工具函数和 Mock 实现。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertErrorCode，按统一错误码断言结构化错误

# 子包

  - testutil/mocks: Mock 实现，包括 MockRecognizer（识别后端）、
    MockSynthesizer（合成后端），均支持 Builder 模式与错误注入
  - testutil/fixtures: 测试数据工厂，提供预置音频负载、
    转写结果、声音列表等样例

# 使用示例

	ctx := testutil.TestContext(t)
	backend := mocks.NewMockRecognizer("whisper").WithConfidence(0.9)
	result, err := backend.Transcribe(ctx, req)
	require.NoError(t, err)
*/
package testutil
