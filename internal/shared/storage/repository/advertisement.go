package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"
)

// adSelect 广告查询列，LEFT JOIN users 填充所有者昵称/角色
const adSelect = `SELECT a.id, a.user_id, a.category, a.subcategory, a.title, a.description,
	a.images, a.price, a.discord_contact, a.telegram_contact, a.is_vip, a.created_at,
	COALESCE(u.nickname, ''), COALESCE(u.role, 'user')
	FROM advertisements a LEFT JOIN users u ON u.id = a.user_id`

// CreateAdvertisement 插入广告行
func (r *Store) CreateAdvertisement(ctx context.Context, ad *model.Advertisement) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO advertisements (id, user_id, category, subcategory, title, description,
		 images, price, discord_contact, telegram_contact, is_vip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`),
		ad.ID, ad.UserID, ad.Category, ad.Subcategory, ad.Title, ad.Description,
		marshalImages(ad.Images), ad.Price, ad.DiscordContact, ad.TelegramContact,
		ad.IsVIP, ad.CreatedAt,
	)
	return wrapInsertErr(err)
}

// GetAdvertisement 按 ID 查找广告，不存在返回 (nil, nil)
func (r *Store) GetAdvertisement(ctx context.Context, id string) (*model.Advertisement, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(adSelect+` WHERE a.id = $1`), id)
	ad, err := scanAdvertisement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ad, err
}

// ListAdvertisements 按过滤条件列出广告，created_at 降序
//
// 角色/VIP 优先级排序由调用方完成；这里的次序是排序稳定性的基准。
func (r *Store) ListAdvertisements(ctx context.Context, filter storage.AdvertisementFilter) ([]*model.Advertisement, error) {
	query := adSelect
	var conds []string
	var args []interface{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("a.category = $%d", len(args)))
	}
	if filter.Subcategory != "" {
		args = append(args, filter.Subcategory)
		conds = append(conds, fmt.Sprintf("a.subcategory = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("a.user_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []*model.Advertisement
	for rows.Next() {
		ad, err := scanAdvertisement(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// UpdateAdvertisement 整行更新（last-write-wins，不做并发检测）
func (r *Store) UpdateAdvertisement(ctx context.Context, ad *model.Advertisement) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE advertisements SET category = $1, subcategory = $2, title = $3,
		 description = $4, images = $5, price = $6, discord_contact = $7,
		 telegram_contact = $8 WHERE id = $9`),
		ad.Category, ad.Subcategory, ad.Title, ad.Description,
		marshalImages(ad.Images), ad.Price, ad.DiscordContact, ad.TelegramContact, ad.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteAdvertisement 删除广告
func (r *Store) DeleteAdvertisement(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`DELETE FROM advertisements WHERE id = $1`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAdvertisement(s scanner) (*model.Advertisement, error) {
	ad := &model.Advertisement{}
	var images string
	err := s.Scan(&ad.ID, &ad.UserID, &ad.Category, &ad.Subcategory, &ad.Title,
		&ad.Description, &images, &ad.Price, &ad.DiscordContact, &ad.TelegramContact,
		&ad.IsVIP, &ad.CreatedAt, &ad.OwnerNickname, &ad.OwnerRole)
	if err != nil {
		return nil, err
	}
	ad.Images = unmarshalImages(images)
	return ad, nil
}
