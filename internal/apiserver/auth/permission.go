package auth

import "skoropad-backend/internal/shared/model"

// HasPermission 判定用户是否具备所需角色之一
//
// 纯函数：用户存在、未被封禁且角色命中集合时为 true。
// 用户缺席或被封禁时无条件为 false。
// 这是服务端入口处的前置判定；存储层写操作仍按所有权独立校验。
func HasPermission(user *model.User, roles ...model.UserRole) bool {
	if user == nil || user.IsBanned {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

// CanModerate 是否具备内容审核权限（版主或管理员）
func CanModerate(user *model.User) bool {
	return HasPermission(user, model.UserRoleModerator, model.UserRoleAdmin)
}

// CanManageAdvertisement 是否可修改/删除指定广告：所有者本人或有审核权限者
func CanManageAdvertisement(user *model.User, ad *model.Advertisement) bool {
	if user == nil || ad == nil || user.IsBanned {
		return false
	}
	if user.ID == ad.UserID {
		return true
	}
	return CanModerate(user)
}
