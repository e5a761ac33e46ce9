package advertisement

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/shared/model"
	"skoropad-backend/internal/shared/objstore"
	"skoropad-backend/internal/shared/storage"
)

// Handler 广告 HTTP 处理器
type Handler struct {
	store  storage.PersistentStore
	images *objstore.Client // 可选，未配置时删除广告不清理图片
}

// NewHandler 创建广告处理器
func NewHandler(store storage.PersistentStore, images *objstore.Client) *Handler {
	return &Handler{store: store, images: images}
}

// RegisterRoutes 注册广告相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/advertisements", h.List)
	mux.HandleFunc("GET /api/v1/advertisements/my", h.ListMine)
	mux.HandleFunc("GET /api/v1/advertisements/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/advertisements", h.Create)
	mux.HandleFunc("PUT /api/v1/advertisements/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/advertisements/{id}", h.Delete)
	mux.HandleFunc("GET /api/v1/taxonomy", h.Taxonomy)
}

// ============================================================================
// 请求类型
// ============================================================================

type createRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	Price           *float64 `json:"price"`
	DiscordContact  *string  `json:"discord_contact"`
	TelegramContact *string  `json:"telegram_contact"`
	Images          []string `json:"images"`
}

type updateRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	Subcategory     *string   `json:"subcategory"`
	Price           *float64  `json:"price"`
	DiscordContact  *string   `json:"discord_contact"`
	TelegramContact *string   `json:"telegram_contact"`
	Images          *[]string `json:"images"`
}

// ============================================================================
// Handlers
// ============================================================================

// List 获取广告列表（公开），支持按分类/子分类过滤，结果已排序
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.AdvertisementFilter{
		Category:    r.URL.Query().Get("category"),
		Subcategory: r.URL.Query().Get("subcategory"),
	}
	if filter.Category != "" && !model.ValidCategory(filter.Category) {
		writeError(w, http.StatusBadRequest, "unknown category: "+filter.Category)
		return
	}
	if filter.Subcategory != "" && filter.Category == "" {
		writeError(w, http.StatusBadRequest, "subcategory filter requires category")
		return
	}
	if filter.Subcategory != "" && !model.ValidSubcategory(filter.Category, filter.Subcategory) {
		writeError(w, http.StatusBadRequest, "unknown subcategory: "+filter.Subcategory)
		return
	}

	ads, err := h.store.ListAdvertisements(r.Context(), filter)
	if err != nil {
		log.Printf("[advertisement.list] ListAdvertisements error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list advertisements")
		return
	}

	RankAdvertisements(ads)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"advertisements": ads,
		"total":          len(ads),
	})
}

// ListMine 获取当前用户自己的广告
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ads, err := h.store.ListAdvertisements(r.Context(), storage.AdvertisementFilter{UserID: authUser.ID})
	if err != nil {
		log.Printf("[advertisement.mine] ListAdvertisements error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list advertisements")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"advertisements": ads,
		"total":          len(ads),
	})
}

// Get 获取单条广告
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ad, err := h.store.GetAdvertisement(r.Context(), id)
	if err != nil {
		log.Printf("[advertisement.get] GetAdvertisement error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ad == nil {
		writeError(w, http.StatusNotFound, "advertisement not found")
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

// Create 发布广告
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// 发布者角色由服务端决定，客户端无法伪造 VIP 标记
	user, err := auth.CurrentUser(r.Context(), h.store)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if user.IsBanned {
		writeError(w, http.StatusForbidden, "account is banned")
		return
	}

	ad := &model.Advertisement{
		ID:              generateID(),
		UserID:          user.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Price:           req.Price,
		DiscordContact:  normalizeContact(req.DiscordContact),
		TelegramContact: normalizeContact(req.TelegramContact),
		Images:          req.Images,
		IsVIP:           user.Role == model.UserRoleVIP,
		CreatedAt:       time.Now(),
	}

	if err := validateAdvertisement(ad); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateAdvertisement(r.Context(), ad); err != nil {
		log.Printf("[advertisement.create] CreateAdvertisement error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create advertisement")
		return
	}

	ad.OwnerNickname = user.Nickname
	ad.OwnerRole = user.Role

	log.Printf("[advertisement] Created: %s by %s (%s/%s)", ad.ID, user.Nickname, ad.Category, ad.Subcategory)
	writeJSON(w, http.StatusCreated, ad)
}

// Update 更新广告（仅所有者或版主）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	// 权限基于数据库中的角色，令牌中的角色可能已过期
	user, err := auth.CurrentUser(r.Context(), h.store)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := r.PathValue("id")
	ad, err := h.store.GetAdvertisement(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ad == nil {
		writeError(w, http.StatusNotFound, "advertisement not found")
		return
	}
	if !auth.CanManageAdvertisement(user, ad) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		ad.Title = *req.Title
	}
	if req.Description != nil {
		ad.Description = *req.Description
	}
	if req.Category != nil {
		ad.Category = *req.Category
	}
	if req.Subcategory != nil {
		ad.Subcategory = *req.Subcategory
	}
	if req.Price != nil {
		ad.Price = req.Price
	}
	if req.DiscordContact != nil {
		ad.DiscordContact = normalizeContact(req.DiscordContact)
	}
	if req.TelegramContact != nil {
		ad.TelegramContact = normalizeContact(req.TelegramContact)
	}
	if req.Images != nil {
		ad.Images = *req.Images
	}

	if err := validateAdvertisement(ad); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateAdvertisement(r.Context(), ad); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "advertisement not found")
			return
		}
		log.Printf("[advertisement.update] UpdateAdvertisement error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update advertisement")
		return
	}

	// 版主修改他人广告时记录管理日志，失败不阻塞请求
	if ad.UserID != user.ID {
		h.appendModerationLog(r, user, ad, model.AdminActionUpdateAd)
	}

	writeJSON(w, http.StatusOK, ad)
}

// Delete 删除广告（仅所有者或版主），附带清理对象存储中的图片
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := auth.CurrentUser(r.Context(), h.store)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	id := r.PathValue("id")
	ad, err := h.store.GetAdvertisement(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ad == nil {
		writeError(w, http.StatusNotFound, "advertisement not found")
		return
	}
	if !auth.CanManageAdvertisement(user, ad) {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	if err := h.store.DeleteAdvertisement(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "advertisement not found")
			return
		}
		log.Printf("[advertisement.delete] DeleteAdvertisement error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete advertisement")
		return
	}

	// 图片清理失败只记日志，删除已经生效
	if h.images != nil {
		for _, url := range ad.Images {
			key := h.images.KeyFromURL(url)
			if key == "" {
				continue
			}
			if err := h.images.Delete(r.Context(), key); err != nil {
				log.Printf("[advertisement.delete] remove image %s failed (ignored): %v", key, err)
			}
		}
	}

	if ad.UserID != user.ID {
		h.appendModerationLog(r, user, ad, model.AdminActionDeleteAd)
	}

	log.Printf("[advertisement] Deleted: %s by %s", ad.ID, user.Nickname)
	writeJSON(w, http.StatusOK, map[string]string{"message": "advertisement deleted"})
}

// Taxonomy 返回固定的分类树
func (h *Handler) Taxonomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": model.Categories,
	})
}

// appendModerationLog 记录版主对他人广告的操作
func (h *Handler) appendModerationLog(r *http.Request, actor *model.User, ad *model.Advertisement, action string) {
	details, _ := json.Marshal(map[string]string{
		"advertisement_id": ad.ID,
		"title":            ad.Title,
	})
	target := ad.UserID
	entry := &model.AdminLogEntry{
		ID:           generateLogID(),
		AdminID:      actor.ID,
		TargetUserID: &target,
		Action:       action,
		Details:      details,
		CreatedAt:    time.Now(),
	}
	if err := h.store.CreateAdminLog(r.Context(), entry); err != nil {
		log.Printf("[advertisement] append admin log failed (ignored): %v", err)
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
	return randomID("adv")
}

func generateLogID() string {
	return randomID("alg")
}

func randomID(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return prefix + "-" + hex.EncodeToString(b)
}
