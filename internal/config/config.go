package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageB2    = "b2"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and only read afterwards.
type Config struct {
	AppMode        string
	ServerPort     string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	JWTSecret      string
	AccessTokenTTL time.Duration
	SwaggerHost    string
	AllowedOrigins []string
	Storage        StorageConfig
}

// StorageConfig selects where uploaded PDFs live.
type StorageConfig struct {
	Backend     string
	UploadDir   string
	MaxUploadMB int64
	B2AccountID string
	B2AppKey    string
	B2Bucket    string
}

// MaxUploadBytes is the per-file upload limit.
func (s StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Load builds Config from the environment (and a .env file when present).
// A missing JWT_SECRET is an error: tokens cannot be issued without it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE %q (must be dev or prod)", appMode)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	ttl, err := time.ParseDuration(getEnv("ACCESS_TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse ACCESS_TOKEN_TTL: %w", err)
	}

	storage := StorageConfig{
		Backend:     getEnv("STORAGE_BACKEND", StorageLocal),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB: int64(getEnvInt("MAX_UPLOAD_MB", 50)),
		B2AccountID: os.Getenv("B2_ACCOUNT_ID"),
		B2AppKey:    os.Getenv("B2_APP_KEY"),
		B2Bucket:    os.Getenv("B2_BUCKET"),
	}
	switch storage.Backend {
	case StorageLocal:
	case StorageB2:
		if storage.B2AccountID == "" || storage.B2AppKey == "" || storage.B2Bucket == "" {
			return nil, errors.New("STORAGE_BACKEND=b2 requires B2_ACCOUNT_ID, B2_APP_KEY and B2_BUCKET")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", storage.Backend)
	}

	return &Config{
		AppMode:        appMode,
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		MySQLDSN:       mysqlDSN(),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      secret,
		AccessTokenTTL: ttl,
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Storage:        storage,
	}, nil
}

// SeedAdmin describes the administrator account the seed command ensures.
type SeedAdmin struct {
	MySQLDSN string
	Username string
	Email    string
	Password string
}

// LoadSeedAdmin reads the seed command's settings. All SEED_ADMIN_* keys are required.
func LoadSeedAdmin() (*SeedAdmin, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	seed := &SeedAdmin{
		MySQLDSN: mysqlDSN(),
		Username: strings.TrimSpace(os.Getenv("SEED_ADMIN_USERNAME")),
		Email:    strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if seed.Username == "" || seed.Email == "" || seed.Password == "" {
		return nil, errors.New("SEED_ADMIN_USERNAME, SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}
	if len(seed.Password) < 6 {
		return nil, errors.New("SEED_ADMIN_PASSWORD must be at least 6 characters")
	}
	return seed, nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

func mysqlDSN() string {
	return getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/theses?charset=utf8mb4&parseTime=True&loc=Local")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
