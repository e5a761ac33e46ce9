package repository

import (
	"context"
	"database/sql"

	"skoropad-backend/internal/shared/model"
)

// CreateUser 创建用户，昵称重复返回 storage.ErrDuplicate
func (r *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO users (id, nickname, password_hash, role, is_banned, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`),
		user.ID, user.Nickname, user.PasswordHash, user.Role, user.IsBanned, user.CreatedAt,
	)
	return wrapInsertErr(err)
}

// GetUserByID 通过 ID 查找用户
func (r *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, nickname, password_hash, role, is_banned, created_at
		 FROM users WHERE id = $1`), id))
}

// GetUserByNickname 通过昵称查找用户
func (r *Store) GetUserByNickname(ctx context.Context, nickname string) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, nickname, password_hash, role, is_banned, created_at
		 FROM users WHERE nickname = $1`), nickname))
}

func (r *Store) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Nickname, &user.PasswordHash,
		&user.Role, &user.IsBanned, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// ListUsers 列出所有用户，按注册时间降序
func (r *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT id, nickname, password_hash, role, is_banned, created_at
		 FROM users ORDER BY created_at DESC, id DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Nickname, &u.PasswordHash,
			&u.Role, &u.IsBanned, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole 更新用户角色
func (r *Store) UpdateUserRole(ctx context.Context, id string, role model.UserRole) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET role = $1 WHERE id = $2`), role, id)
	return err
}

// UpdateUserBan 更新封禁标记
func (r *Store) UpdateUserBan(ctx context.Context, id string, banned bool) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET is_banned = $1 WHERE id = $2`), banned, id)
	return err
}

// UpdateUserPassword 更新用户密码哈希
func (r *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE users SET password_hash = $1 WHERE id = $2`), passwordHash, id)
	return err
}
