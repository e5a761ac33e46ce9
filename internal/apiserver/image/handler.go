package image

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/shared/objstore"
)

// MaxUploadSize 单张图片大小上限
const MaxUploadSize = 5 << 20 // 5 MiB

// Handler 图片上传 HTTP 处理器
type Handler struct {
	images *objstore.Client
}

// NewHandler 创建图片处理器；images 为 nil 时上传返回 503
func NewHandler(images *objstore.Client) *Handler {
	return &Handler{images: images}
}

// RegisterRoutes 注册图片相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/images", h.Upload)
}

// Upload 上传广告图片（multipart 表单字段 "image"），返回公开 URL
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if authUser == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+4096)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "image must be at most 5 MB")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image must be at most 5 MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "only image uploads are allowed")
		return
	}

	key := fmt.Sprintf("%s/%d%s", authUser.ID, time.Now().UnixNano(), extensionFor(contentType, header.Filename))
	if err := h.images.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		log.Printf("[image.upload] Upload error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}

	url := h.images.PublicURL(key)
	log.Printf("[image] Uploaded %s (%d bytes) by %s", key, header.Size, authUser.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": url,
	})
}

// extensionFor 优先取文件名后缀，否则按 MIME 类型推断
func extensionFor(contentType, filename string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
