package session

import (
	"sync"
	"time"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

// registry 持有全部活跃会话. 外层读写锁只保护 map 结构本身,
// 会话状态由各自的互斥量保护, 因此不同会话的操作互不阻塞.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionContext
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*sessionContext)}
}

// get 返回会话, 不存在时返回 nil.
func (r *registry) get(sessionID string) *sessionContext {
	if sessionID == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[sessionID]
}

// getOrCreate 返回会话, 不存在时创建. 第二个返回值表示是否新建.
func (r *registry) getOrCreate(sessionID, language string, mode types.InputMode, now time.Time) (*sessionContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s, false
	}
	s := newSessionContext(sessionID, language, mode, now)
	r.sessions[sessionID] = s
	return s, true
}

// remove 移除会话, 返回是否存在.
func (r *registry) remove(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return false
	}
	delete(r.sessions, sessionID)
	return true
}

// removeStale 移除 cutoff 之前再无交互的会话, 返回移除数量.
func (r *registry) removeStale(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.staleSince(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// size 返回当前会话数.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// all 返回当前全部会话的切片快照.
func (r *registry) all() []*sessionContext {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*sessionContext, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
