// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 repository 层所有存储接口的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"
	"skoropad-backend/internal/shared/storage/dbutil"
	sqlitedriver "skoropad-backend/internal/shared/storage/driver/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, s *Store, id, nickname string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		ID:           id,
		Nickname:     nickname,
		PasswordHash: "$2a$12$fakehashfortest",
		Role:         role,
		CreatedAt:    time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "datetime('now')", d.CurrentTimestamp())
	assert.Equal(t, "1", d.BooleanLiteral(true))
	assert.Equal(t, "0", d.BooleanLiteral(false))
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT * FROM t WHERE id = ? AND name = ?",
		d.Rebind("SELECT * FROM t WHERE id = $1 AND name = $2"))
	// 应去除 PG 类型转换
	assert.Equal(t, "UPDATE t SET role = ? WHERE id = ?",
		d.Rebind("UPDATE t SET role = $1::varchar WHERE id = $2"))
}

// ============================================================================
// User 测试
// ============================================================================

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "usr-001", "alice", model.UserRoleUser)

	// 按 ID 查找
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Nickname)
	assert.Equal(t, model.UserRoleUser, got.Role)
	assert.False(t, got.IsBanned)

	// 按昵称查找
	got, err = s.GetUserByNickname(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	// 不存在返回 (nil, nil)
	got, err = s.GetUserByID(ctx, "usr-missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetUserByNickname(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserDuplicateNickname(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "usr-001", "alice", model.UserRoleUser)

	dup := &model.User{
		ID:           "usr-002",
		Nickname:     "alice",
		PasswordHash: "hash",
		Role:         model.UserRoleUser,
		CreatedAt:    time.Now(),
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestUserRoleAndBan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "usr-001", "bob", model.UserRoleUser)

	require.NoError(t, s.UpdateUserRole(ctx, u.ID, model.UserRoleVIP))
	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleVIP, got.Role)

	require.NoError(t, s.UpdateUserBan(ctx, u.ID, true))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned)

	require.NoError(t, s.UpdateUserBan(ctx, u.ID, false))
	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned)
}

func TestUpdateUserPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "usr-001", "carol", model.UserRoleUser)
	require.NoError(t, s.UpdateUserPassword(ctx, u.ID, "newhash"))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "usr-001", "alice", model.UserRoleUser)
	mustCreateUser(t, s, "usr-002", "bob", model.UserRoleModerator)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

// ============================================================================
// Advertisement 测试
// ============================================================================

func newTestAd(id, userID string, createdAt time.Time) *model.Advertisement {
	discord := "seller#1234"
	price := 1500.0
	return &model.Advertisement{
		ID:             id,
		UserID:         userID,
		Category:       "automobiles",
		Subcategory:    "sale",
		Title:          "Test car",
		Description:    "Good condition",
		Images:         []string{"http://cdn/img1.jpg"},
		Price:          &price,
		DiscordContact: &discord,
		CreatedAt:      createdAt,
	}
}

func TestAdvertisementCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	owner := mustCreateUser(t, s, "usr-001", "seller", model.UserRoleVIP)
	ad := newTestAd("adv-001", owner.ID, now)
	ad.IsVIP = true
	require.NoError(t, s.CreateAdvertisement(ctx, ad))

	// Get 应关联填充所有者昵称/角色
	got, err := s.GetAdvertisement(ctx, ad.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test car", got.Title)
	assert.Equal(t, "seller", got.OwnerNickname)
	assert.Equal(t, model.UserRoleVIP, got.OwnerRole)
	assert.True(t, got.IsVIP)
	assert.Equal(t, []string{"http://cdn/img1.jpg"}, got.Images)
	require.NotNil(t, got.Price)
	assert.Equal(t, 1500.0, *got.Price)
	require.NotNil(t, got.DiscordContact)
	assert.Equal(t, "seller#1234", *got.DiscordContact)
	assert.Nil(t, got.TelegramContact)

	// 不存在返回 (nil, nil)
	got, err = s.GetAdvertisement(ctx, "adv-missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Update
	ad.Title = "Updated car"
	ad.Images = []string{"http://cdn/img1.jpg", "http://cdn/img2.jpg"}
	require.NoError(t, s.UpdateAdvertisement(ctx, ad))
	got, err = s.GetAdvertisement(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated car", got.Title)
	assert.Len(t, got.Images, 2)

	// Delete
	require.NoError(t, s.DeleteAdvertisement(ctx, ad.ID))
	got, err = s.GetAdvertisement(ctx, ad.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// 二次删除返回 ErrNotFound
	assert.ErrorIs(t, s.DeleteAdvertisement(ctx, ad.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateAdvertisement(ctx, ad), storage.ErrNotFound)
}

func TestListAdvertisementsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	owner := mustCreateUser(t, s, "usr-001", "seller", model.UserRoleUser)
	other := mustCreateUser(t, s, "usr-002", "other", model.UserRoleUser)

	a1 := newTestAd("adv-001", owner.ID, base.Add(-2*time.Hour))
	a2 := newTestAd("adv-002", owner.ID, base.Add(-1*time.Hour))
	a2.Category = "clothing"
	a2.Subcategory = "sale"
	a3 := newTestAd("adv-003", other.ID, base)
	require.NoError(t, s.CreateAdvertisement(ctx, a1))
	require.NoError(t, s.CreateAdvertisement(ctx, a2))
	require.NoError(t, s.CreateAdvertisement(ctx, a3))

	// 无过滤：全部，按创建时间降序
	ads, err := s.ListAdvertisements(ctx, storage.AdvertisementFilter{})
	require.NoError(t, err)
	require.Len(t, ads, 3)
	assert.Equal(t, "adv-003", ads[0].ID)
	assert.Equal(t, "adv-002", ads[1].ID)
	assert.Equal(t, "adv-001", ads[2].ID)

	// 按分类过滤
	ads, err = s.ListAdvertisements(ctx, storage.AdvertisementFilter{Category: "automobiles"})
	require.NoError(t, err)
	require.Len(t, ads, 2)

	// 按分类+子分类过滤
	ads, err = s.ListAdvertisements(ctx, storage.AdvertisementFilter{Category: "clothing", Subcategory: "sale"})
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "adv-002", ads[0].ID)

	// 按用户过滤
	ads, err = s.ListAdvertisements(ctx, storage.AdvertisementFilter{UserID: owner.ID})
	require.NoError(t, err)
	require.Len(t, ads, 2)
}

// ============================================================================
// AdminLog 测试
// ============================================================================

func TestAdminLogAppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := mustCreateUser(t, s, "usr-adm", "root", model.UserRoleAdmin)
	target := mustCreateUser(t, s, "usr-001", "alice", model.UserRoleUser)

	details, _ := json.Marshal(map[string]string{"nickname": "alice"})
	first := &model.AdminLogEntry{
		ID:           "alg-001",
		AdminID:      admin.ID,
		TargetUserID: &target.ID,
		Action:       model.AdminActionBan,
		Details:      details,
		CreatedAt:    time.Now().Add(-time.Minute).Truncate(time.Second),
	}
	second := &model.AdminLogEntry{
		ID:        "alg-002",
		AdminID:   admin.ID,
		Action:    model.AdminActionSetRole + "_vip",
		CreatedAt: time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.CreateAdminLog(ctx, first))
	require.NoError(t, s.CreateAdminLog(ctx, second))

	logs, err := s.ListAdminLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// 按时间倒序
	assert.Equal(t, "alg-002", logs[0].ID)
	assert.Equal(t, "alg-001", logs[1].ID)

	// 昵称关联填充
	assert.Equal(t, "root", logs[1].AdminNickname)
	assert.Equal(t, "alice", logs[1].TargetNickname)
	assert.Equal(t, model.AdminActionBan, logs[1].Action)
	assert.JSONEq(t, `{"nickname":"alice"}`, string(logs[1].Details))

	// 无目标用户的日志
	assert.Nil(t, logs[0].TargetUserID)
	assert.Equal(t, "", logs[0].TargetNickname)
}
