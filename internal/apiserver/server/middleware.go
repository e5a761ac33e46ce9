package server

import (
	"net"
	"net/http"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/pkg/logging"
)

// requestLogMiddleware 结构化请求日志
//
// 放在认证中间件之后，能拿到注入的用户身份。
func requestLogMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// /metrics 的抓取不值得记录
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			l := log
			if u := auth.GetAuthUser(r.Context()); u != nil {
				l = l.WithUserID(u.ID)
			}
			l.HTTPRequestLog(r.Method, normalizePath(r.URL.Path), wrapped.statusCode,
				time.Since(start), clientIP(r))
		})
	}
}

// clientIP 提取客户端地址，优先 X-Forwarded-For
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
