// Package cache 定义会话缓存抽象接口
//
// 会话快照是缓存，不是权威数据源：每个特权操作都由存储层按
// 当前用户重新校验，缓存丢失只影响体验，不影响安全。
package cache

import (
	"context"
	"time"

	"skoropad-backend/internal/shared/model"
)

// TTLSession 会话快照过期时间
const TTLSession = 7 * 24 * time.Hour

// Redis 键前缀
const (
	KeySession    = "session:"     // session:{user_id} → 用户快照 JSON
	KeyActiveUser = "active_user:" // active_user:{user_id} → 最近活跃时间戳
)

// SessionCache 会话缓存接口
type SessionCache interface {
	// SaveSession 持久化用户快照
	SaveSession(ctx context.Context, user *model.User) error

	// LoadSession 读取用户快照，不存在返回 (nil, nil)
	LoadSession(ctx context.Context, userID string) (*model.User, error)

	// ClearSession 删除用户快照（登出）
	ClearSession(ctx context.Context, userID string) error

	// MarkActive 记录当前作用身份，供后续请求的策略判定参考。
	// 调用方按尽力而为处理：失败只记日志，不阻断主流程。
	MarkActive(ctx context.Context, userID string) error

	Close() error
}
