package mongostore

import (
	"context"

	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// AdvertisementStore
// ============================================================================

func (s *Store) CreateAdvertisement(ctx context.Context, ad *model.Advertisement) error {
	if ad.Images == nil {
		ad.Images = []string{}
	}
	return insertOne(ctx, s.col(ColAdvertisements), ad)
}

func (s *Store) GetAdvertisement(ctx context.Context, id string) (*model.Advertisement, error) {
	ad, err := findOne[model.Advertisement](ctx, s.col(ColAdvertisements), bson.D{{Key: "_id", Value: id}})
	if err != nil || ad == nil {
		return ad, err
	}
	if err := s.attachOwners(ctx, []*model.Advertisement{ad}); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *Store) ListAdvertisements(ctx context.Context, filter storage.AdvertisementFilter) ([]*model.Advertisement, error) {
	query := bson.D{}
	if filter.Category != "" {
		query = append(query, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.Subcategory != "" {
		query = append(query, bson.E{Key: "subcategory", Value: filter.Subcategory})
	}
	if filter.UserID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.UserID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	ads, err := findMany[model.Advertisement](ctx, s.col(ColAdvertisements), query, opts)
	if err != nil {
		return nil, err
	}
	if err := s.attachOwners(ctx, ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (s *Store) UpdateAdvertisement(ctx context.Context, ad *model.Advertisement) error {
	if ad.Images == nil {
		ad.Images = []string{}
	}
	return updateFields(ctx, s.col(ColAdvertisements), ad.ID, bson.D{
		{Key: "category", Value: ad.Category},
		{Key: "subcategory", Value: ad.Subcategory},
		{Key: "title", Value: ad.Title},
		{Key: "description", Value: ad.Description},
		{Key: "images", Value: ad.Images},
		{Key: "price", Value: ad.Price},
		{Key: "discord_contact", Value: ad.DiscordContact},
		{Key: "telegram_contact", Value: ad.TelegramContact},
	})
}

func (s *Store) DeleteAdvertisement(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColAdvertisements), id)
}

// attachOwners 按 user_id 批量回填所有者昵称和角色
// MongoDB 没有 JOIN，用一次 $in 查询代替逐行查找
func (s *Store) attachOwners(ctx context.Context, ads []*model.Advertisement) error {
	if len(ads) == 0 {
		return nil
	}

	idSet := make(map[string]struct{}, len(ads))
	ids := make([]string, 0, len(ads))
	for _, ad := range ads {
		if _, ok := idSet[ad.UserID]; !ok && ad.UserID != "" {
			idSet[ad.UserID] = struct{}{}
			ids = append(ids, ad.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	owners, err := findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return err
	}

	byID := make(map[string]*model.User, len(owners))
	for _, u := range owners {
		byID[u.ID] = u
	}
	for _, ad := range ads {
		if u, ok := byID[ad.UserID]; ok {
			ad.OwnerNickname = u.Nickname
			ad.OwnerRole = u.Role
		} else {
			ad.OwnerRole = model.UserRoleUser
		}
	}
	return nil
}
