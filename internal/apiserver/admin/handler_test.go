package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/shared/model"
	sqlitedriver "skoropad-backend/internal/shared/storage/driver/sqlite"
	"skoropad-backend/internal/shared/storage/repository"
)

func newTestHandler(t *testing.T) (*Handler, *repository.Store) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dialect := sqlitedriver.NewDialect()
	if err := dialect.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return NewHandler(store), store
}

func createUser(t *testing.T, store *repository.Store, id, nickname string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		ID:           id,
		Nickname:     nickname,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func authedRequest(method, path, body string, u *model.User) *http.Request {
	r := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	return r.WithContext(auth.WithAuthUser(r.Context(), &auth.AuthUser{
		ID:       u.ID,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}))
}

// TestBanUnban 封禁/解封流程
func TestBanUnban(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()
	mod := createUser(t, store, "usr-mod", "mod", model.UserRoleModerator)
	target := createUser(t, store, "usr-001", "alice", model.UserRoleUser)
	admin := createUser(t, store, "usr-adm", "root", model.UserRoleAdmin)

	t.Run("封禁成功并记录日志", func(t *testing.T) {
		r := authedRequest("POST", "/api/v1/admin/users/"+target.ID+"/ban", "", mod)
		r.SetPathValue("id", target.ID)
		w := httptest.NewRecorder()
		h.BanUser(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
		}

		got, err := store.GetUserByID(ctx, target.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsBanned {
			t.Error("user should be banned")
		}

		logs, err := store.ListAdminLogs(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(logs) != 1 {
			t.Fatalf("logs = %d, want 1", len(logs))
		}
		if logs[0].Action != model.AdminActionBan || logs[0].AdminID != mod.ID {
			t.Errorf("log = %+v", logs[0])
		}
		if logs[0].TargetUserID == nil || *logs[0].TargetUserID != target.ID {
			t.Errorf("target = %v, want %s", logs[0].TargetUserID, target.ID)
		}
	})

	t.Run("解封成功", func(t *testing.T) {
		r := authedRequest("POST", "/api/v1/admin/users/"+target.ID+"/unban", "", mod)
		r.SetPathValue("id", target.ID)
		w := httptest.NewRecorder()
		h.UnbanUser(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		got, _ := store.GetUserByID(ctx, target.ID)
		if got.IsBanned {
			t.Error("user should be unbanned")
		}

		logs, _ := store.ListAdminLogs(ctx)
		if len(logs) != 2 {
			t.Fatalf("logs = %d, want 2", len(logs))
		}
		// 最新一条在前
		if logs[0].Action != model.AdminActionUnban {
			t.Errorf("latest action = %q, want unban", logs[0].Action)
		}
	})

	t.Run("不能封禁自己", func(t *testing.T) {
		r := authedRequest("POST", "/api/v1/admin/users/"+mod.ID+"/ban", "", mod)
		r.SetPathValue("id", mod.ID)
		w := httptest.NewRecorder()
		h.BanUser(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("不能封禁管理员", func(t *testing.T) {
		r := authedRequest("POST", "/api/v1/admin/users/"+admin.ID+"/ban", "", mod)
		r.SetPathValue("id", admin.ID)
		w := httptest.NewRecorder()
		h.BanUser(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("不存在的用户返回 404", func(t *testing.T) {
		r := authedRequest("POST", "/api/v1/admin/users/usr-missing/ban", "", mod)
		r.SetPathValue("id", "usr-missing")
		w := httptest.NewRecorder()
		h.BanUser(w, r)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

// TestSetUserRole 角色调整流程
func TestSetUserRole(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()
	admin := createUser(t, store, "usr-adm", "root", model.UserRoleAdmin)
	target := createUser(t, store, "usr-001", "alice", model.UserRoleUser)

	t.Run("提升为 VIP 并记录日志", func(t *testing.T) {
		r := authedRequest("PUT", "/api/v1/admin/users/"+target.ID+"/role", `{"role":"vip"}`, admin)
		r.SetPathValue("id", target.ID)
		w := httptest.NewRecorder()
		h.SetUserRole(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
		}

		got, _ := store.GetUserByID(ctx, target.ID)
		if got.Role != model.UserRoleVIP {
			t.Errorf("role = %q, want vip", got.Role)
		}

		logs, _ := store.ListAdminLogs(ctx)
		if len(logs) != 1 {
			t.Fatalf("logs = %d, want 1", len(logs))
		}
		// 动作格式：role_{newRole}
		if logs[0].Action != "role_vip" {
			t.Errorf("action = %q, want role_vip", logs[0].Action)
		}
		var details map[string]string
		if err := json.Unmarshal(logs[0].Details, &details); err != nil {
			t.Fatal(err)
		}
		if details["from_role"] != "user" {
			t.Errorf("from_role = %q, want user", details["from_role"])
		}
	})

	t.Run("不能分配 admin 角色", func(t *testing.T) {
		r := authedRequest("PUT", "/api/v1/admin/users/"+target.ID+"/role", `{"role":"admin"}`, admin)
		r.SetPathValue("id", target.ID)
		w := httptest.NewRecorder()
		h.SetUserRole(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("不能分配未知角色", func(t *testing.T) {
		r := authedRequest("PUT", "/api/v1/admin/users/"+target.ID+"/role", `{"role":"superadmin"}`, admin)
		r.SetPathValue("id", target.ID)
		w := httptest.NewRecorder()
		h.SetUserRole(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("不能改自己的角色", func(t *testing.T) {
		r := authedRequest("PUT", "/api/v1/admin/users/"+admin.ID+"/role", `{"role":"user"}`, admin)
		r.SetPathValue("id", admin.ID)
		w := httptest.NewRecorder()
		h.SetUserRole(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

// TestListUsersFilter 用户列表与昵称过滤
func TestListUsersFilter(t *testing.T) {
	h, store := newTestHandler(t)
	mod := createUser(t, store, "usr-mod", "mod", model.UserRoleModerator)
	createUser(t, store, "usr-001", "alice", model.UserRoleUser)
	createUser(t, store, "usr-002", "alicia", model.UserRoleUser)
	createUser(t, store, "usr-003", "bob", model.UserRoleUser)

	decode := func(w *httptest.ResponseRecorder) []*model.User {
		var resp struct {
			Users []*model.User `json:"users"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		return resp.Users
	}

	t.Run("全部用户", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ListUsers(w, authedRequest("GET", "/api/v1/admin/users", "", mod))
		if got := decode(w); len(got) != 4 {
			t.Errorf("users = %d, want 4", len(got))
		}
	})

	t.Run("昵称子串过滤", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ListUsers(w, authedRequest("GET", "/api/v1/admin/users?q=ali", "", mod))
		if got := decode(w); len(got) != 2 {
			t.Errorf("users = %d, want 2", len(got))
		}
	})

	t.Run("过滤大小写不敏感", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ListUsers(w, authedRequest("GET", "/api/v1/admin/users?q=BOB", "", mod))
		if got := decode(w); len(got) != 1 {
			t.Errorf("users = %d, want 1", len(got))
		}
	})
}

// TestSearchAdvertisements 管理端广告搜索
func TestSearchAdvertisements(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()
	mod := createUser(t, store, "usr-mod", "mod", model.UserRoleModerator)
	seller := createUser(t, store, "usr-001", "carseller", model.UserRoleUser)

	discord := "x#1"
	ads := []*model.Advertisement{
		{ID: "adv-001", UserID: seller.ID, Category: "automobiles", Subcategory: "sale",
			Title: "Old truck", Description: "rusty", DiscordContact: &discord, CreatedAt: time.Now()},
		{ID: "adv-002", UserID: seller.ID, Category: "clothing", Subcategory: "sale",
			Title: "Jacket", Description: "warm winter jacket", DiscordContact: &discord, CreatedAt: time.Now()},
	}
	for _, a := range ads {
		if err := store.CreateAdvertisement(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	decode := func(w *httptest.ResponseRecorder) []*model.Advertisement {
		var resp struct {
			Advertisements []*model.Advertisement `json:"advertisements"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		return resp.Advertisements
	}

	t.Run("按标题搜索", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.SearchAdvertisements(w, authedRequest("GET", "/api/v1/admin/advertisements?q=truck", "", mod))
		if got := decode(w); len(got) != 1 || got[0].ID != "adv-001" {
			t.Errorf("got %d ads", len(got))
		}
	})

	t.Run("按描述搜索", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.SearchAdvertisements(w, authedRequest("GET", "/api/v1/admin/advertisements?q=winter", "", mod))
		if got := decode(w); len(got) != 1 || got[0].ID != "adv-002" {
			t.Errorf("got %d ads", len(got))
		}
	})

	t.Run("按发布者昵称搜索", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.SearchAdvertisements(w, authedRequest("GET", "/api/v1/admin/advertisements?q=carseller", "", mod))
		if got := decode(w); len(got) != 2 {
			t.Errorf("got %d ads, want 2", len(got))
		}
	})

	t.Run("无关键字返回全部", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.SearchAdvertisements(w, authedRequest("GET", "/api/v1/admin/advertisements", "", mod))
		if got := decode(w); len(got) != 2 {
			t.Errorf("got %d ads, want 2", len(got))
		}
	})
}

// TestRoleGate 路由级角色门禁（经由 RequireRoles 注册的路由）
func TestRoleGate(t *testing.T) {
	h, store := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	normal := createUser(t, store, "usr-001", "alice", model.UserRoleUser)
	mod := createUser(t, store, "usr-mod", "mod", model.UserRoleModerator)
	admin := createUser(t, store, "usr-adm", "root", model.UserRoleAdmin)

	tests := []struct {
		name   string
		user   *model.User
		method string
		path   string
		want   int
	}{
		{"普通用户访问用户列表", normal, "GET", "/api/v1/admin/users", http.StatusForbidden},
		{"版主访问用户列表", mod, "GET", "/api/v1/admin/users", http.StatusOK},
		{"版主访问日志被拒", mod, "GET", "/api/v1/admin/logs", http.StatusForbidden},
		{"管理员访问日志", admin, "GET", "/api/v1/admin/logs", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authedRequest(tt.method, tt.path, "", tt.user)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
