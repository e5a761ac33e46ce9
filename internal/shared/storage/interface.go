// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（SQL）、mongostore/（MongoDB）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"skoropad-backend/internal/shared/model"
)

// AdvertisementFilter 广告查询过滤条件
//
// Category/Subcategory 为空表示不过滤。存储层按 created_at 降序返回，
// 角色/VIP 优先级排序在 advertisement 包中完成（需保持稳定性）。
type AdvertisementFilter struct {
	Category    string
	Subcategory string
	UserID      string
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.UserRole) error
	UpdateUserBan(ctx context.Context, id string, banned bool) error
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// AdvertisementStore 广告存储接口
//
// 读操作返回的行均已填充 OwnerNickname/OwnerRole。
type AdvertisementStore interface {
	CreateAdvertisement(ctx context.Context, ad *model.Advertisement) error
	GetAdvertisement(ctx context.Context, id string) (*model.Advertisement, error)
	ListAdvertisements(ctx context.Context, filter AdvertisementFilter) ([]*model.Advertisement, error)
	UpdateAdvertisement(ctx context.Context, ad *model.Advertisement) error
	DeleteAdvertisement(ctx context.Context, id string) error
}

// AdminLogStore 管理日志存储接口（只追加）
type AdminLogStore interface {
	CreateAdminLog(ctx context.Context, entry *model.AdminLogEntry) error
	ListAdminLogs(ctx context.Context) ([]*model.AdminLogEntry, error)
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	AdvertisementStore
	AdminLogStore
	Close() error
}
