package model

import (
	"encoding/json"
	"time"
)

// 管理操作动作标签
const (
	AdminActionBan       = "ban"
	AdminActionUnban     = "unban"
	AdminActionSetRole   = "role" // 实际记录为 role_{newRole}
	AdminActionDeleteAd  = "delete_advertisement"
	AdminActionUpdateAd  = "update_advertisement"
)

// AdminLogEntry 管理操作日志，只追加，客户端永不修改或删除
type AdminLogEntry struct {
	ID           string          `json:"id" bson:"_id"`
	AdminID      string          `json:"admin_id" bson:"admin_id"`
	TargetUserID *string         `json:"target_user_id,omitempty" bson:"target_user_id,omitempty"`
	Action       string          `json:"action" bson:"action"`
	Details      json.RawMessage `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`

	AdminNickname  string `json:"admin_nickname,omitempty" bson:"-"`
	TargetNickname string `json:"target_nickname,omitempty" bson:"-"`
}
