package admin

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"
)

// Handler 管理后台 HTTP 处理器
type Handler struct {
	store storage.PersistentStore
}

// NewHandler 创建管理处理器
func NewHandler(store storage.PersistentStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册管理相关路由
// 版主可以查看用户、搜索广告、封禁/解封；角色变更和日志仅限管理员
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	moderator := auth.RequireRoles(h.store, model.UserRoleModerator, model.UserRoleAdmin)
	admin := auth.RequireRoles(h.store, model.UserRoleAdmin)

	mux.HandleFunc("GET /api/v1/admin/users", moderator(h.ListUsers))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/ban", moderator(h.BanUser))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/unban", moderator(h.UnbanUser))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/role", admin(h.SetUserRole))
	mux.HandleFunc("GET /api/v1/admin/advertisements", moderator(h.SearchAdvertisements))
	mux.HandleFunc("GET /api/v1/admin/logs", admin(h.ListLogs))
}

// ============================================================================
// 用户管理
// ============================================================================

// ListUsers 用户列表，支持 ?q= 按昵称过滤
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin.users] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := users[:0]
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Nickname), q) {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// BanUser 封禁用户
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	h.setBan(w, r, true)
}

// UnbanUser 解封用户
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	h.setBan(w, r, false)
}

func (h *Handler) setBan(w http.ResponseWriter, r *http.Request, banned bool) {
	actor := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "cannot ban yourself")
		return
	}

	target, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Role == model.UserRoleAdmin {
		writeError(w, http.StatusForbidden, "cannot ban an admin")
		return
	}

	if err := h.store.UpdateUserBan(r.Context(), id, banned); err != nil {
		log.Printf("[admin.ban] UpdateUserBan error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	action := model.AdminActionBan
	if !banned {
		action = model.AdminActionUnban
	}
	h.appendLog(r, actor.ID, &id, action, map[string]string{"nickname": target.Nickname})

	target.IsBanned = banned
	log.Printf("[admin] %s user %s (%s) by %s", action, target.Nickname, id, actor.Nickname)
	writeJSON(w, http.StatusOK, target)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetUserRole 调整用户角色（仅管理员）
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetAuthUser(r.Context())
	id := r.PathValue("id")

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := model.UserRole(req.Role)
	if !model.AssignableRole(role) {
		writeError(w, http.StatusBadRequest, "invalid role: "+req.Role)
		return
	}
	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	target, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.store.UpdateUserRole(r.Context(), id, role); err != nil {
		log.Printf("[admin.role] UpdateUserRole error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	// 动作记录为 role_{newRole}，与历史日志格式保持一致
	h.appendLog(r, actor.ID, &id, model.AdminActionSetRole+"_"+string(role), map[string]string{
		"nickname":  target.Nickname,
		"from_role": string(target.Role),
	})

	target.Role = role
	log.Printf("[admin] role of %s set to %s by %s", target.Nickname, role, actor.Nickname)
	writeJSON(w, http.StatusOK, target)
}

// ============================================================================
// 广告搜索
// ============================================================================

// SearchAdvertisements 管理端广告搜索，?q= 匹配标题/描述/发布者昵称
func (h *Handler) SearchAdvertisements(w http.ResponseWriter, r *http.Request) {
	ads, err := h.store.ListAdvertisements(r.Context(), storage.AdvertisementFilter{})
	if err != nil {
		log.Printf("[admin.ads] ListAdvertisements error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list advertisements")
		return
	}

	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := ads[:0]
		for _, ad := range ads {
			if strings.Contains(strings.ToLower(ad.Title), q) ||
				strings.Contains(strings.ToLower(ad.Description), q) ||
				strings.Contains(strings.ToLower(ad.OwnerNickname), q) {
				filtered = append(filtered, ad)
			}
		}
		ads = filtered
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"advertisements": ads,
		"total":          len(ads),
	})
}

// ============================================================================
// 管理日志
// ============================================================================

// ListLogs 管理日志列表，按时间倒序（仅管理员）
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.ListAdminLogs(r.Context())
	if err != nil {
		log.Printf("[admin.logs] ListAdminLogs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list admin logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": len(logs),
	})
}

// appendLog 追加管理日志，失败只记日志不影响主操作
func (h *Handler) appendLog(r *http.Request, adminID string, targetID *string, action string, details map[string]string) {
	raw, _ := json.Marshal(details)
	entry := &model.AdminLogEntry{
		ID:           generateID(),
		AdminID:      adminID,
		TargetUserID: targetID,
		Action:       action,
		Details:      raw,
		CreatedAt:    time.Now(),
	}
	if err := h.store.CreateAdminLog(r.Context(), entry); err != nil {
		log.Printf("[admin] append admin log failed (ignored): %v", err)
	}
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func generateID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("alg-%d", time.Now().UnixNano())
	}
	return "alg-" + hex.EncodeToString(b)
}
