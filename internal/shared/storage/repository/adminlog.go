package repository

import (
	"context"
	"database/sql"

	"skoropad-backend/internal/shared/model"
)

// CreateAdminLog 追加管理日志
func (r *Store) CreateAdminLog(ctx context.Context, entry *model.AdminLogEntry) error {
	var details interface{}
	if entry.Details != nil {
		details = string(entry.Details)
	}
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO admin_logs (id, admin_id, target_user_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`),
		entry.ID, entry.AdminID, entry.TargetUserID, entry.Action, details, entry.CreatedAt,
	)
	return err
}

// ListAdminLogs 列出全部管理日志，按时间降序，附带操作者/目标昵称
func (r *Store) ListAdminLogs(ctx context.Context) ([]*model.AdminLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT l.id, l.admin_id, l.target_user_id, l.action, l.details, l.created_at,
		 COALESCE(a.nickname, ''), COALESCE(t.nickname, '')
		 FROM admin_logs l
		 LEFT JOIN users a ON a.id = l.admin_id
		 LEFT JOIN users t ON t.id = l.target_user_id
		 ORDER BY l.created_at DESC, l.id DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.AdminLogEntry
	for rows.Next() {
		e := &model.AdminLogEntry{}
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.AdminID, &e.TargetUserID, &e.Action, &details,
			&e.CreatedAt, &e.AdminNickname, &e.TargetNickname); err != nil {
			return nil, err
		}
		if details.Valid {
			e.Details = []byte(details.String)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
