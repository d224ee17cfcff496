/*
软件包recognition实现语音识别级联.

# 概述

级联按优先级持有一组识别后端: 首选高精度后端, 其结果置信度达到
接受阈值时立即返回; 后端不可达或结果低于阈值时依次尝试降级后端.
后端严格串行尝试, 从不并发竞速, 避免在廉价后端已成功时浪费昂贵
后端的调用成本.

# 核心类型

  - Backend: 识别后端接口 (Transcribe / DetectLanguage / IsAvailable).
  - Cascade: 有序后端列表上的级联编排, 新增后端只需追加到列表.
  - HTTPBackend: Whisper 风格 HTTP API 适配, 带客户端限流与
    可用性探测缓存.

# 错误语义

后端不可达被级联静默吸收; 只有全部后端耗尽才返回
RECOGNITION_UNAVAILABLE / RECOGNITION_FAILED. 语言检测失败兜底到
配置的默认语言, 从不向上传播.
*/
package recognition
