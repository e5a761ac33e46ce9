// Package redis 会话快照相关操作
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skoropad-backend/internal/shared/cache"
	"skoropad-backend/internal/shared/model"
)

// SaveSession 持久化用户快照
func (s *Store) SaveSession(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	key := cache.KeySession + user.ID
	if err := s.client.Set(ctx, key, data, cache.TTLSession).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession 读取用户快照，不存在返回 (nil, nil)
func (s *Store) LoadSession(ctx context.Context, userID string) (*model.User, error) {
	key := cache.KeySession + userID
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user := &model.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return user, nil
}

// ClearSession 删除用户快照和活跃标记
func (s *Store) ClearSession(ctx context.Context, userID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, cache.KeySession+userID)
	pipe.Del(ctx, cache.KeyActiveUser+userID)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkActive 记录当前作用身份的最近活跃时间
func (s *Store) MarkActive(ctx context.Context, userID string) error {
	key := cache.KeyActiveUser + userID
	return s.client.Set(ctx, key, time.Now().Format(time.RFC3339), cache.TTLSession).Err()
}
