package auth

import (
	"testing"

	"skoropad-backend/internal/shared/model"
)

func makeUser(id string, role model.UserRole, banned bool) *model.User {
	return &model.User{ID: id, Nickname: id, Role: role, IsBanned: banned}
}

// TestHasPermission 角色校验真值表
func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		roles    []model.UserRole
		expected bool
	}{
		{"nil 用户", nil, []model.UserRole{model.UserRoleUser}, false},
		{"角色匹配", makeUser("u1", model.UserRoleModerator, false), []model.UserRole{model.UserRoleModerator}, true},
		{"多角色之一匹配", makeUser("u1", model.UserRoleAdmin, false), []model.UserRole{model.UserRoleModerator, model.UserRoleAdmin}, true},
		{"角色不匹配", makeUser("u1", model.UserRoleUser, false), []model.UserRole{model.UserRoleModerator}, false},
		{"VIP 不是版主", makeUser("u1", model.UserRoleVIP, false), []model.UserRole{model.UserRoleModerator, model.UserRoleAdmin}, false},
		{"封禁用户被拒", makeUser("u1", model.UserRoleAdmin, true), []model.UserRole{model.UserRoleAdmin}, false},
		{"遗留角色无特权", makeUser("u1", model.UserRoleLegend, false), []model.UserRole{model.UserRoleModerator, model.UserRoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasPermission(tt.user, tt.roles...)
			if got != tt.expected {
				t.Errorf("HasPermission() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestCanModerate 版主/管理员判定
func TestCanModerate(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		expected bool
	}{
		{"普通用户", makeUser("u1", model.UserRoleUser, false), false},
		{"VIP", makeUser("u1", model.UserRoleVIP, false), false},
		{"版主", makeUser("u1", model.UserRoleModerator, false), true},
		{"管理员", makeUser("u1", model.UserRoleAdmin, false), true},
		{"封禁的版主", makeUser("u1", model.UserRoleModerator, true), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModerate(tt.user); got != tt.expected {
				t.Errorf("CanModerate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestCanManageAdvertisement 广告管理权限判定
func TestCanManageAdvertisement(t *testing.T) {
	ad := &model.Advertisement{ID: "adv-001", UserID: "owner-1"}

	tests := []struct {
		name     string
		user     *model.User
		expected bool
	}{
		{"所有者本人", makeUser("owner-1", model.UserRoleUser, false), true},
		{"无关用户", makeUser("stranger", model.UserRoleUser, false), false},
		{"无关 VIP", makeUser("stranger", model.UserRoleVIP, false), false},
		{"版主", makeUser("mod-1", model.UserRoleModerator, false), true},
		{"管理员", makeUser("adm-1", model.UserRoleAdmin, false), true},
		{"被封禁的所有者", makeUser("owner-1", model.UserRoleUser, true), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageAdvertisement(tt.user, ad); got != tt.expected {
				t.Errorf("CanManageAdvertisement() = %v, want %v", got, tt.expected)
			}
		})
	}
}
