package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"skoropad-backend/internal/shared/cache"
	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/refresh",
	"/api/v1/taxonomy",
	"/health",
	"/metrics",
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// 广告浏览公开，仅写操作需要认证
	if method == http.MethodGet && strings.HasPrefix(path, "/api/v1/advertisements") {
		return true
	}
	return false
}

// Middleware 创建 JWT 认证中间件
//
// 解析通过后将 AuthUser 注入 context，并把当前作用身份
// 以尽力而为的方式写入会话缓存（失败只记日志，请求照常继续）。
func Middleware(cfg Config, sessions cache.SessionCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 公开路由：放行，但携带了有效令牌时仍注入身份
			// （如 GET /api/v1/advertisements/my 需要知道当前用户）
			if isPublicRoute(r.Method, r.URL.Path) {
				if user := parseOptionalToken(cfg, r); user != nil {
					r = r.WithContext(WithAuthUser(r.Context(), user))
				}
				next.ServeHTTP(w, r)
				return
			}

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			// 解析 JWT
			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			if claims.Type != "access" {
				http.Error(w, `{"error":"invalid token type"}`, http.StatusUnauthorized)
				return
			}

			user := &AuthUser{
				ID:       claims.Subject,
				Nickname: claims.Nickname,
				Role:     claims.Role,
			}
			ctx := WithAuthUser(r.Context(), user)

			// 尽力而为：标记当前作用身份
			if sessions != nil {
				if err := sessions.MarkActive(ctx, user.ID); err != nil {
					log.Printf("[auth] mark active user failed (ignored): %v", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseOptionalToken 解析请求中的访问令牌，无效或缺失时返回 nil
func parseOptionalToken(cfg Config, r *http.Request) *AuthUser {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}
	claims, err := ParseToken(cfg, parts[1])
	if err != nil || claims.Type != "access" {
		return nil
	}
	return &AuthUser{ID: claims.Subject, Nickname: claims.Nickname, Role: claims.Role}
}

// RequireRoles 基于数据库的角色校验中间件
//
// 重新加载用户行后调用 HasPermission，封禁用户即使持有效令牌也会被拒绝。
func RequireRoles(store storage.UserStore, roles ...model.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, err := CurrentUser(r.Context(), store)
			if err != nil {
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if !HasPermission(user, roles...) {
				http.Error(w, `{"error":"insufficient permissions"}`, http.StatusForbidden)
				return
			}
			next(w, r)
		}
	}
}

// CurrentUser 按 context 中的认证身份加载数据库用户行
// 未认证或用户不存在返回 (nil, nil)
func CurrentUser(ctx context.Context, store storage.UserStore) (*model.User, error) {
	au := GetAuthUser(ctx)
	if au == nil {
		return nil, nil
	}
	return store.GetUserByID(ctx, au.ID)
}
