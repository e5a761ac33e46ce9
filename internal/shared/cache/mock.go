// Package cache 缓存层 mock 实现
package cache

import (
	"context"
	"sync"

	"skoropad-backend/internal/shared/model"
)

// ============================================================================
// MemoryCache - 进程内 SessionCache 实现（用于测试和无 Redis 部署）
// ============================================================================

// MemoryCache 进程内会话缓存
type MemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]model.User
}

// NewMemoryCache 创建 MemoryCache 实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{sessions: make(map[string]model.User)}
}

func (c *MemoryCache) SaveSession(ctx context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[user.ID] = *user
	return nil
}

func (c *MemoryCache) LoadSession(ctx context.Context, userID string) (*model.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (c *MemoryCache) ClearSession(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, userID)
	return nil
}

func (c *MemoryCache) MarkActive(ctx context.Context, userID string) error {
	return nil
}

// Close 关闭缓存
func (c *MemoryCache) Close() error {
	return nil
}
