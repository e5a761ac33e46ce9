package advertisement

import (
	"sort"

	"skoropad-backend/internal/shared/model"
)

// rankTier 广告排序等级，数值越小越靠前
func rankTier(ad *model.Advertisement) int {
	switch {
	case ad.OwnerRole == model.UserRoleAdmin:
		return 0
	case ad.IsVIP:
		return 1
	default:
		return 2
	}
}

// RankAdvertisements 对广告列表排序：
// 管理员发布的置顶，VIP 其次，其余按创建时间降序。
// 同级内保持创建时间降序，时间相同保持原有相对顺序。
func RankAdvertisements(ads []*model.Advertisement) {
	sort.SliceStable(ads, func(i, j int) bool {
		ti, tj := rankTier(ads[i]), rankTier(ads[j])
		if ti != tj {
			return ti < tj
		}
		return ads[i].CreatedAt.After(ads[j].CreatedAt)
	})
}
