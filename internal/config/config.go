package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置（最终使用的配置）
type Config struct {
	Env      Environment
	APIPort  string
	Database DatabaseConfig
	RedisURL string
	MinIO    MinIOConfig
	Auth     AuthConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// 解析环境
	env := parseEnv(getEnv("APP_ENV", "dev"))

	// 加载 YAML 配置
	yamlCfg := loadYAMLConfig(env)

	// 从环境变量获取敏感信息
	yamlCfg.Database.Password = getEnv("DB_PASSWORD", "")
	yamlCfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	yamlCfg.MinIO.AccessKey = getEnv("MINIO_ROOT_USER", "")
	yamlCfg.MinIO.SecretKey = getEnv("MINIO_ROOT_PASSWORD", "")
	yamlCfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	yamlCfg.Auth.AdminNickname = getEnv("ADMIN_NICKNAME", "")
	yamlCfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")

	// 环境变量覆盖
	if v := os.Getenv("API_PORT"); v != "" {
		yamlCfg.Server.Port = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		yamlCfg.Database.Driver = v
	}

	return &Config{
		Env:      env,
		APIPort:  yamlCfg.Server.Port,
		Database: yamlCfg.Database,
		RedisURL: buildRedisURL(yamlCfg.Redis),
		MinIO:    yamlCfg.MinIO,
		Auth:     yamlCfg.Auth,
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	// 1. 初始化默认值
	cfg := &YAMLConfig{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Driver: "sqlite", Path: "skoropad.db", Host: "localhost", Port: 5432, User: "skoropad", Name: "skoropad", SSLMode: "disable"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		MinIO:    MinIOConfig{Endpoint: "", UseSSL: false, Bucket: "advertisement-images"},
		Auth:     AuthConfig{AccessTokenTTL: "15m", RefreshTokenTTL: "168h"},
	}

	// 2. 加载 common.yaml（公共配置）
	for _, base := range configPaths {
		path := filepath.Join(base, "common.yaml")
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	// 3. 加载 {env}.yaml（环境特定配置，覆盖公共配置）
	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// DatabaseURL 构建 PostgreSQL 连接字符串
func (c *Config) DatabaseURL() string {
	db := c.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.Name, db.SSLMode)
}

// MongoURI 构建 MongoDB 连接 URI
func (c *Config) MongoURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}
	host := c.Database.Host
	port := c.Database.Port
	if port == 0 || port == 5432 {
		port = 27017
	}
	if c.Database.User != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", c.Database.User, c.Database.Password, host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

// buildRedisURL 构建 Redis 连接字符串
func buildRedisURL(r RedisConfig) string {
	if r.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", r.Password, r.Host, r.Port, r.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", r.Host, r.Port, r.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, Port: %s, Redis: %s}",
		c.Env, c.Database.Driver, c.APIPort, maskPassword(c.RedisURL))
}

// maskPassword 隐藏连接串中的密码
func maskPassword(url string) string {
	re := regexp.MustCompile(`(://[^:@]*:)([^@]+)(@)`)
	return re.ReplaceAllString(url, "${1}***${3}")
}
