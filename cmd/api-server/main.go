// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skoropad-backend/internal/apiserver/auth"
	"skoropad-backend/internal/apiserver/server"
	"skoropad-backend/internal/config"
	"skoropad-backend/internal/shared/cache"
	cacheredis "skoropad-backend/internal/shared/cache/redis"
	"skoropad-backend/internal/shared/objstore"
	"skoropad-backend/internal/shared/storage"
	"skoropad-backend/internal/shared/storage/driver/postgres"
	"skoropad-backend/internal/shared/storage/driver/sqlite"
	"skoropad-backend/internal/shared/storage/mongostore"
	"skoropad-backend/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换配置文件）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化持久化存储
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()
	log.Printf("Connected to %s store", cfg.Database.Driver)

	// 初始化会话缓存（Redis 不可用时退化为内存实现）
	var sessions cache.SessionCache
	if redisStore, err := cacheredis.NewStoreFromURL(cfg.RedisURL); err != nil {
		log.Printf("Redis unavailable, using in-memory session cache: %v", err)
		sessions = cache.NewMemoryCache()
	} else {
		defer redisStore.Close()
		sessions = redisStore
		log.Println("Connected to Redis")
	}

	// 初始化对象存储（可选）
	var images *objstore.Client
	if cfg.MinIO.Endpoint != "" {
		images, err = objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := images.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		cancel()
		log.Println("Connected to MinIO")
	} else {
		log.Println("MinIO not configured, image uploads disabled")
	}

	// 认证配置
	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = cfg.Auth.JWTSecret
	if d, err := time.ParseDuration(cfg.Auth.AccessTokenTTL); err == nil && d > 0 {
		authCfg.AccessTokenTTL = d
	}
	if d, err := time.ParseDuration(cfg.Auth.RefreshTokenTTL); err == nil && d > 0 {
		authCfg.RefreshTokenTTL = d
	}
	if !authCfg.Enabled() {
		log.Fatal("JWT_SECRET is required")
	}

	// 确保管理员账号存在
	if err := auth.EnsureAdminUser(store, cfg.Auth.AdminNickname, cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, sessions, images, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 根据配置的驱动打开持久化存储
func openStore(cfg *config.Config) (storage.PersistentStore, func(), error) {
	switch cfg.Database.Driver {
	case "mongodb":
		s, err := mongostore.NewStore(cfg.MongoURI(), cfg.Database.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return s, func() { s.Close() }, nil

	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		dialect := postgres.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s := repository.NewStore(db, dialect)
		return s, func() { s.Close() }, nil

	case "sqlite", "":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		dialect := sqlite.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		s := repository.NewStore(db, dialect)
		return s, func() { s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}
