/*
软件包synthesis实现文本转语音级联.

与识别级联互为镜像: 默认偏好快速/离线的轻量后端, 高质量后端作为
增强选项, 两者之间按配置与可达性降级, 宁可输出降级结果也不过早
整体失败. 空文本与不支持的语言在触达任何后端之前即被拒绝.

SSML 标记输入会先被剥离为纯文本再合成; 标记感知的韵律控制不在
本核心范围内.
*/
package synthesis
