package server

import (
	"net/http"

	"skoropad-backend/internal/apiserver/admin"
	"skoropad-backend/internal/apiserver/advertisement"
	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/apiserver/image"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register - 注册
//   - POST /api/v1/auth/login    - 登录
//   - POST /api/v1/auth/refresh  - 刷新访问令牌
//   - POST /api/v1/auth/logout   - 登出
//   - GET  /api/v1/auth/me       - 当前用户
//   - PUT  /api/v1/auth/password - 修改密码
//
// 广告 (Advertisement):
//   - GET    /api/v1/advertisements      - 列表（公开，已排序）
//   - GET    /api/v1/advertisements/my   - 当前用户的广告
//   - GET    /api/v1/advertisements/{id} - 详情
//   - POST   /api/v1/advertisements      - 发布
//   - PUT    /api/v1/advertisements/{id} - 更新
//   - DELETE /api/v1/advertisements/{id} - 删除
//   - GET    /api/v1/taxonomy            - 分类树（公开）
//
// 图片 (Image):
//   - POST /api/v1/images - 上传广告图片
//
// 管理 (Admin):
//   - GET  /api/v1/admin/users            - 用户列表（版主+）
//   - POST /api/v1/admin/users/{id}/ban   - 封禁（版主+）
//   - POST /api/v1/admin/users/{id}/unban - 解封（版主+）
//   - PUT  /api/v1/admin/users/{id}/role  - 角色调整（管理员）
//   - GET  /api/v1/admin/advertisements   - 广告搜索（版主+）
//   - GET  /api/v1/admin/logs             - 管理日志（管理员）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.sessions, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// 广告接口
	adHandler := advertisement.NewHandler(h.store, h.images)
	adHandler.RegisterRoutes(mux)

	// 图片上传接口
	imageHandler := image.NewHandler(h.images)
	imageHandler.RegisterRoutes(mux)

	// 管理后台接口
	adminHandler := admin.NewHandler(h.store)
	adminHandler.RegisterRoutes(mux)

	// 应用请求日志与指标中间件
	apiHandler := h.metrics.MetricsMiddleware(requestLogMiddleware(h.logger)(mux))

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authConfig, h.sessions)(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
