package model

import "time"

// MaxImagesPerAdvertisement 单条广告图片上限
const MaxImagesPerAdvertisement = 10

// Advertisement 分类广告
//
// Owner 字段（OwnerNickname/OwnerRole）由存储层在读取时关联 users 填充，
// 写入时忽略。排序逻辑依赖 OwnerRole。
type Advertisement struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	Category        string    `json:"category" bson:"category"`
	Subcategory     string    `json:"subcategory" bson:"subcategory"`
	Title           string    `json:"title" bson:"title"`
	Description     string    `json:"description" bson:"description"`
	Images          []string  `json:"images" bson:"images"`
	Price           *float64  `json:"price,omitempty" bson:"price,omitempty"`
	DiscordContact  *string   `json:"discord_contact,omitempty" bson:"discord_contact,omitempty"`
	TelegramContact *string   `json:"telegram_contact,omitempty" bson:"telegram_contact,omitempty"`
	IsVIP           bool      `json:"is_vip" bson:"is_vip"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`

	OwnerNickname string   `json:"owner_nickname,omitempty" bson:"-"`
	OwnerRole     UserRole `json:"owner_role,omitempty" bson:"-"`
}

// HasContact 是否至少填写了一种联系方式
func (a *Advertisement) HasContact() bool {
	return (a.DiscordContact != nil && *a.DiscordContact != "") ||
		(a.TelegramContact != nil && *a.TelegramContact != "")
}
