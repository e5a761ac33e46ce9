package advertisement

import (
	"testing"
	"time"

	"skoropad-backend/internal/shared/model"
)

func ad(id string, role model.UserRole, vip bool, createdAt time.Time) *model.Advertisement {
	return &model.Advertisement{
		ID:        id,
		OwnerRole: role,
		IsVIP:     vip,
		CreatedAt: createdAt,
	}
}

func ids(ads []*model.Advertisement) []string {
	out := make([]string, len(ads))
	for i, a := range ads {
		out[i] = a.ID
	}
	return out
}

// TestRankAdvertisements 排序规则：管理员 > VIP > 普通；同级按时间降序
func TestRankAdvertisements(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   []*model.Advertisement
		want []string
	}{
		{
			name: "管理员置顶",
			in: []*model.Advertisement{
				ad("normal", model.UserRoleUser, false, base.Add(2*time.Hour)),
				ad("vip", model.UserRoleVIP, true, base.Add(time.Hour)),
				ad("admin", model.UserRoleAdmin, false, base),
			},
			want: []string{"admin", "vip", "normal"},
		},
		{
			name: "VIP 优先于更新的普通广告",
			in: []*model.Advertisement{
				ad("fresh", model.UserRoleUser, false, base.Add(24*time.Hour)),
				ad("vip-old", model.UserRoleVIP, true, base),
			},
			want: []string{"vip-old", "fresh"},
		},
		{
			name: "同级按创建时间降序",
			in: []*model.Advertisement{
				ad("old", model.UserRoleUser, false, base),
				ad("new", model.UserRoleUser, false, base.Add(time.Hour)),
				ad("mid", model.UserRoleUser, false, base.Add(30*time.Minute)),
			},
			want: []string{"new", "mid", "old"},
		},
		{
			name: "多个管理员之间按时间降序",
			in: []*model.Advertisement{
				ad("adm-old", model.UserRoleAdmin, false, base),
				ad("vip", model.UserRoleVIP, true, base.Add(2*time.Hour)),
				ad("adm-new", model.UserRoleAdmin, false, base.Add(time.Hour)),
			},
			want: []string{"adm-new", "adm-old", "vip"},
		},
		{
			name: "遗留角色按普通处理",
			in: []*model.Advertisement{
				ad("legend", model.UserRoleLegend, false, base.Add(time.Hour)),
				ad("vip", model.UserRoleVIP, true, base),
			},
			want: []string{"vip", "legend"},
		},
		{
			name: "空列表",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RankAdvertisements(tt.in)
			got := ids(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("position %d = %q, want %q (full order: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

// TestRankAdvertisementsStable 时间相同的条目保持输入相对顺序
func TestRankAdvertisementsStable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list := []*model.Advertisement{
		ad("first", model.UserRoleUser, false, base),
		ad("second", model.UserRoleUser, false, base),
		ad("third", model.UserRoleUser, false, base),
	}

	RankAdvertisements(list)

	want := []string{"first", "second", "third"}
	for i, id := range ids(list) {
		if id != want[i] {
			t.Errorf("position %d = %q, want %q", i, id, want[i])
		}
	}
}
