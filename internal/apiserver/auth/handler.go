package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"skoropad-backend/internal/shared/cache"
	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store    storage.UserStore
	sessions cache.SessionCache
	cfg      Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, sessions cache.SessionCache, cfg Config) *Handler {
	return &Handler{store: store, sessions: sessions, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
	mux.HandleFunc("PUT /api/v1/auth/password", h.ChangePassword)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type loginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type authResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Nickname == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "nickname and password are required")
		return
	}
	if !isValidNickname(req.Nickname) {
		writeError(w, http.StatusBadRequest, "nickname must be 3-32 characters: letters, digits, underscore")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	// 检查昵称是否已注册
	existing, err := h.store.GetUserByNickname(r.Context(), req.Nickname)
	if err != nil {
		log.Printf("[auth.register] GetUserByNickname error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "nickname already registered")
		return
	}

	// 哈希密码
	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &model.User{
		ID:           generateID(),
		Nickname:     req.Nickname,
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		IsBanned:     false,
		CreatedAt:    time.Now(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// 并发注册同名昵称：唯一索引兜底
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "nickname already registered")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(user)
	if err != nil {
		log.Printf("[auth.register] issue tokens error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.saveSessionBestEffort(r.Context(), user)

	log.Printf("[auth] User registered: %s (%s)", user.Nickname, user.ID)
	writeJSON(w, http.StatusCreated, authResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Login 用户登录
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Nickname == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "nickname and password are required")
		return
	}

	user, err := h.store.GetUserByNickname(r.Context(), req.Nickname)
	if err != nil {
		log.Printf("[auth.login] GetUserByNickname error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid nickname or password")
		return
	}
	if user.IsBanned {
		writeError(w, http.StatusForbidden, "account is banned")
		return
	}

	accessToken, refreshToken, err := h.issueTokens(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.saveSessionBestEffort(r.Context(), user)

	log.Printf("[auth] User logged in: %s", user.Nickname)
	writeJSON(w, http.StatusOK, authResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Refresh 刷新访问令牌
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := ParseToken(h.cfg, req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if claims.Type != "refresh" {
		writeError(w, http.StatusUnauthorized, "invalid token type")
		return
	}

	// 查询用户确保仍然存在且未被封禁
	user, err := h.store.GetUserByID(r.Context(), claims.Subject)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if user.IsBanned {
		writeError(w, http.StatusForbidden, "account is banned")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, user.ID, user.Nickname, string(user.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Logout 登出：清除会话快照
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if h.sessions != nil {
		if err := h.sessions.ClearSession(r.Context(), authUser.ID); err != nil {
			log.Printf("[auth.logout] ClearSession error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to clear session")
			return
		}
	}

	log.Printf("[auth] User logged out: %s", authUser.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me 获取当前用户信息
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authUser := GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "old_password and new_password are required")
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if !CheckPassword(req.OldPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "incorrect old password")
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// issueTokens 签发访问/刷新令牌对
func (h *Handler) issueTokens(user *model.User) (access, refresh string, err error) {
	access, err = GenerateAccessToken(h.cfg, user.ID, user.Nickname, string(user.Role))
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateRefreshToken(h.cfg, user.ID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// saveSessionBestEffort 写入会话快照并标记作用身份，失败只记日志
func (h *Handler) saveSessionBestEffort(ctx context.Context, user *model.User) {
	if h.sessions == nil {
		return
	}
	if err := h.sessions.SaveSession(ctx, user); err != nil {
		log.Printf("[auth] save session failed (ignored): %v", err)
		return
	}
	if err := h.sessions.MarkActive(ctx, user.ID); err != nil {
		log.Printf("[auth] mark active user failed (ignored): %v", err)
	}
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminNickname 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store storage.UserStore, adminNickname, adminPassword string) error {
	if adminNickname == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByNickname(ctx, adminNickname)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		if existing.Role != model.UserRoleAdmin {
			log.Printf("[auth] Upgrading user %s to admin role", adminNickname)
			if err := store.UpdateUserRole(ctx, existing.ID, model.UserRoleAdmin); err != nil {
				return fmt.Errorf("upgrade admin role: %w", err)
			}
		}
		log.Printf("[auth] Admin user already exists: %s (%s)", adminNickname, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &model.User{
		ID:           generateID(),
		Nickname:     adminNickname,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminNickname, user.ID)
	return nil
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

var nicknameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func isValidNickname(nickname string) bool {
	return nicknameRegex.MatchString(nickname)
}

func generateID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("usr-%d", time.Now().UnixNano())
	}
	return "usr-" + hex.EncodeToString(b)
}
