package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected bool
	}{
		// 公开路由
		{"register", "POST", "/api/v1/auth/register", true},
		{"login", "POST", "/api/v1/auth/login", true},
		{"refresh", "POST", "/api/v1/auth/refresh", true},
		{"taxonomy", "GET", "/api/v1/taxonomy", true},
		{"health", "GET", "/health", true},
		{"metrics", "GET", "/metrics", true},
		{"list ads", "GET", "/api/v1/advertisements", true},
		{"get ad", "GET", "/api/v1/advertisements/adv-123", true},

		// 需要认证的路由
		{"logout", "POST", "/api/v1/auth/logout", false},
		{"me", "GET", "/api/v1/auth/me", false},
		{"change password", "PUT", "/api/v1/auth/password", false},
		{"create ad", "POST", "/api/v1/advertisements", false},
		{"update ad", "PUT", "/api/v1/advertisements/adv-123", false},
		{"delete ad", "DELETE", "/api/v1/advertisements/adv-123", false},
		{"upload image", "POST", "/api/v1/images", false},
		{"admin users", "GET", "/api/v1/admin/users", false},
		{"admin logs", "GET", "/api/v1/admin/logs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isPublicRoute(tt.method, tt.path)
			if got != tt.expected {
				t.Errorf("isPublicRoute(%q, %q) = %v, want %v", tt.method, tt.path, got, tt.expected)
			}
		})
	}
}

// TestMiddleware_TokenHandling 认证中间件令牌处理
func TestMiddleware_TokenHandling(t *testing.T) {
	cfg := testConfig()

	var gotUser *AuthUser
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg, nil)(inner)

	t.Run("缺失令牌返回 401", func(t *testing.T) {
		gotUser = nil
		r := httptest.NewRequest("POST", "/api/v1/advertisements", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("有效令牌注入身份", func(t *testing.T) {
		gotUser = nil
		token, err := GenerateAccessToken(cfg, "usr-001", "alice", "user")
		if err != nil {
			t.Fatal(err)
		}
		r := httptest.NewRequest("POST", "/api/v1/advertisements", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUser == nil || gotUser.ID != "usr-001" || gotUser.Nickname != "alice" {
			t.Errorf("AuthUser = %+v, want usr-001/alice", gotUser)
		}
	})

	t.Run("刷新令牌不能当访问令牌用", func(t *testing.T) {
		gotUser = nil
		token, err := GenerateRefreshToken(cfg, "usr-001")
		if err != nil {
			t.Fatal(err)
		}
		r := httptest.NewRequest("POST", "/api/v1/advertisements", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("公开路由携带令牌也注入身份", func(t *testing.T) {
		gotUser = nil
		token, err := GenerateAccessToken(cfg, "usr-002", "bob", "vip")
		if err != nil {
			t.Fatal(err)
		}
		r := httptest.NewRequest("GET", "/api/v1/advertisements/my", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUser == nil || gotUser.ID != "usr-002" {
			t.Errorf("AuthUser = %+v, want usr-002", gotUser)
		}
	})

	t.Run("公开路由无令牌匿名放行", func(t *testing.T) {
		gotUser = nil
		r := httptest.NewRequest("GET", "/api/v1/advertisements", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUser != nil {
			t.Errorf("AuthUser = %+v, want nil", gotUser)
		}
	})
}
