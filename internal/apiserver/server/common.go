// Package server 路由配置与核心基础设施
//
// 本包是 HTTP API 的组装点，包括：
//   - 认证接口（注册/登录/刷新）
//   - 广告接口（发布/浏览/管理）
//   - 图片上传接口
//   - 管理后台接口（封禁/角色/日志）
//   - Prometheus 指标
//
// 文件组织：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由配置
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/shared/cache"
	"skoropad-backend/internal/shared/objstore"
	"skoropad-backend/internal/shared/storage"
	"skoropad-backend/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域包
//   - 管理存储层连接
//   - 组装认证/指标/CORS 中间件链
type Handler struct {
	store storage.PersistentStore // 持久化业务数据

	sessions cache.SessionCache // 会话快照缓存（Redis，可为内存实现）
	images   *objstore.Client   // 广告图片对象存储，可为 nil

	authConfig auth.Config
	metrics    *Metrics
	logger     *logging.Logger
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, sessions cache.SessionCache, images *objstore.Client, authCfg auth.Config) *Handler {
	return &Handler{
		store:      store,
		sessions:   sessions,
		images:     images,
		authConfig: authCfg,
		metrics:    NewMetrics("api"),
		logger:     logging.Default("api-server"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
