package mongostore

import (
	"context"

	"skoropad-backend/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// AdminLogStore
// ============================================================================

func (s *Store) CreateAdminLog(ctx context.Context, entry *model.AdminLogEntry) error {
	return insertOne(ctx, s.col(ColAdminLogs), entry)
}

func (s *Store) ListAdminLogs(ctx context.Context) ([]*model.AdminLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	entries, err := findMany[model.AdminLogEntry](ctx, s.col(ColAdminLogs), bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	// 回填操作者/目标昵称
	idSet := make(map[string]struct{})
	var ids []string
	collect := func(id string) {
		if id == "" {
			return
		}
		if _, ok := idSet[id]; !ok {
			idSet[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, e := range entries {
		collect(e.AdminID)
		if e.TargetUserID != nil {
			collect(*e.TargetUserID)
		}
	}
	if len(ids) == 0 {
		return entries, nil
	}

	users, err := findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Nickname
	}
	for _, e := range entries {
		e.AdminNickname = byID[e.AdminID]
		if e.TargetUserID != nil {
			e.TargetNickname = byID[*e.TargetUserID]
		}
	}
	return entries, nil
}
