package model

import "time"

// UserRole 用户角色层级
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleVIP       UserRole = "vip"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
	// UserRoleLegend 历史遗留层级，旧数据中存在，不再分配
	UserRoleLegend UserRole = "Legend"
)

// ValidRole 角色是否属于固定枚举
func ValidRole(r UserRole) bool {
	switch r {
	case UserRoleUser, UserRoleVIP, UserRoleModerator, UserRoleAdmin, UserRoleLegend:
		return true
	}
	return false
}

// AssignableRoles 管理面板可分配的角色（不含 admin 和遗留层级）
var AssignableRoles = []UserRole{UserRoleUser, UserRoleVIP, UserRoleModerator}

// AssignableRole 角色是否允许通过管理面板分配
func AssignableRole(r UserRole) bool {
	for _, a := range AssignableRoles {
		if r == a {
			return true
		}
	}
	return false
}

// User 用户账号
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Nickname     string    `json:"nickname" bson:"nickname"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose in JSON
	Role         UserRole  `json:"role" bson:"role"`
	IsBanned     bool      `json:"is_banned" bson:"is_banned"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
