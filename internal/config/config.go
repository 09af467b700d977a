package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// セッションストアの種別。
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"` // 未指定の場合は BACKEND_URL + /api/callback

	// Session
	SessionSecret        string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionPruneInterval time.Duration `env:"SESSION_PRUNE_INTERVAL" envDefault:"15m"`
	SessionBackend       string        `env:"SESSION_BACKEND" envDefault:"postgres"`

	// Redis（SESSION_BACKEND=redis の場合のみ使用）
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL,required,notEmpty"`
	BackendURL  string `env:"BACKEND_URL,required,notEmpty"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`

	// Cookie
	CookieDomain string `env:"COOKIE_DOMAIN"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = cfg.BackendURL + "/api/callback"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv は指定パスの.envファイルを環境変数に読み込む。
// 既に設定済みの環境変数は上書きしない。ファイルが存在しない場合は何もしない。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case SessionBackendPostgres:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=%s", SessionBackendRedis)
		}
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND: %q", c.SessionBackend)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive: %s", c.SessionTTL)
	}
	if c.SessionPruneInterval <= 0 {
		return fmt.Errorf("SESSION_PRUNE_INTERVAL must be positive: %s", c.SessionPruneInterval)
	}

	return nil
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CookieSecure はCookieにSecure属性を付与するかどうかを返す。
// 本番環境またはHTTPSのバックエンドURLの場合に付与する。
func (c *Config) CookieSecure() bool {
	return c.IsProduction() || strings.HasPrefix(c.BackendURL, "https://")
}

// CookieSameSite はセッションCookieのSameSite属性を返す。
// 本番ではフロントエンドとバックエンドが別ドメインのためNoneにする（Secure必須）。
func (c *Config) CookieSameSite() http.SameSite {
	if c.IsProduction() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
