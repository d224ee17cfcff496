package session

import (
	"sync"
	"time"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// historyCapacity 每个会话保留的最近交互条数, 超出时从最旧一端淘汰.
const historyCapacity = 10

// Interaction 是会话历史中的一条交互记录.
type Interaction struct {
	Timestamp time.Time       `json:"timestamp"`
	Mode      types.InputMode `json:"mode"`
	Succeeded bool            `json:"succeeded"`
	Language  string          `json:"language"`
}

// Context 是会话上下文的只读快照.
// 可变状态由编排器的注册表独占持有, 对外只暴露副本.
type Context struct {
	SessionID         string          `json:"session_id"`
	Language          string          `json:"language"`
	Mode              types.InputMode `json:"mode"`
	LastInteractionAt time.Time       `json:"last_interaction_at"`
	FailureCount      int             `json:"failure_count"`
	TotalInteractions int             `json:"total_interactions"`
	FallbackSuggested bool            `json:"fallback_suggested"`
	History           []Interaction   `json:"history"`
}

// sessionContext 是单个会话的可变状态. 每个会话持有独立的互斥量,
// 不同会话的并发调用互不阻塞.
type sessionContext struct {
	mu sync.Mutex

	id                string
	language          string
	mode              types.InputMode
	lastInteractionAt time.Time
	failureCount      int
	totalInteractions int
	fallbackSuggested bool
	history           []Interaction
}

func newSessionContext(id, language string, mode types.InputMode, now time.Time) *sessionContext {
	return &sessionContext{
		id:                id,
		language:          language,
		mode:              mode,
		lastInteractionAt: now,
	}
}

// appendHistoryLocked 追加交互记录并保持容量上限. 必须持锁调用.
func (s *sessionContext) appendHistoryLocked(rec Interaction) {
	s.history = append(s.history, rec)
	if len(s.history) > historyCapacity {
		s.history = s.history[len(s.history)-historyCapacity:]
	}
}

// recordSuccess 记录一次成功交互. 成功会清零失败计数并
// 解除降级建议的抑制.
func (s *sessionContext) recordSuccess(mode types.InputMode, language string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastInteractionAt = now
	s.totalInteractions++
	s.failureCount = 0
	s.fallbackSuggested = false
	s.appendHistoryLocked(Interaction{
		Timestamp: now,
		Mode:      mode,
		Succeeded: true,
		Language:  language,
	})
}

// recordFailure 记录一次失败交互. 仅语音模式累计失败计数;
// 计数首次达到阈值且尚未建议过时返回降级建议.
func (s *sessionContext) recordFailure(language string, maxFailures int, now time.Time) *types.FallbackSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastInteractionAt = now
	s.totalInteractions++
	s.appendHistoryLocked(Interaction{
		Timestamp: now,
		Mode:      s.mode,
		Succeeded: false,
		Language:  language,
	})

	if s.mode != types.InputModeVoice {
		// 文本输入没有识别失败面, 不触发降级建议
		return nil
	}

	s.failureCount++
	if s.failureCount < maxFailures || s.fallbackSuggested {
		return nil
	}

	s.fallbackSuggested = true
	return &types.FallbackSuggestion{
		SuggestedMode: s.suggestModeLocked(),
		Reason:        types.FallbackReasonMultipleFailures,
		FailureCount:  s.failureCount,
	}
}

// switchMode 切换输入方式: 新方式下从零开始.
func (s *sessionContext) switchMode(newMode types.InputMode, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = newMode
	s.failureCount = 0
	s.fallbackSuggested = false
	s.lastInteractionAt = now
}

// pendingSuggestion 只读地重算当前是否应当给出降级建议.
func (s *sessionContext) pendingSuggestion(maxFailures int) *types.FallbackSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != types.InputModeVoice || s.fallbackSuggested || s.failureCount < maxFailures {
		return nil
	}
	return &types.FallbackSuggestion{
		SuggestedMode: s.suggestModeLocked(),
		Reason:        types.FallbackReasonMultipleFailures,
		FailureCount:  s.failureCount,
	}
}

// suggestModeLocked 优先建议历史中最近一次成功且不同于当前方式的
// 模态, 否则建议当前方式的对立面. 必须持锁调用.
func (s *sessionContext) suggestModeLocked() types.InputMode {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Succeeded && s.history[i].Mode != s.mode {
			return s.history[i].Mode
		}
	}
	return s.mode.Opposite()
}

// update 覆盖会话的语言与输入方式 (setContext 语义).
func (s *sessionContext) update(language string, mode types.InputMode, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if language != "" {
		s.language = language
	}
	if mode.Valid() && mode != s.mode {
		// 显式改变模态等同于切换: 新方式下从零开始
		s.mode = mode
		s.failureCount = 0
		s.fallbackSuggested = false
	}
	s.lastInteractionAt = now
}

// snapshot 返回上下文的深拷贝.
func (s *sessionContext) snapshot() *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]Interaction, len(s.history))
	copy(history, s.history)

	return &Context{
		SessionID:         s.id,
		Language:          s.language,
		Mode:              s.mode,
		LastInteractionAt: s.lastInteractionAt,
		FailureCount:      s.failureCount,
		TotalInteractions: s.totalInteractions,
		FallbackSuggested: s.fallbackSuggested,
		History:           history,
	}
}

// currentLanguage 返回会话当前语言.
func (s *sessionContext) currentLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// staleSince 判断会话是否在 cutoff 之前就再无交互.
func (s *sessionContext) staleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteractionAt.Before(cutoff)
}
