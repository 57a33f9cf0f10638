package config

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// 既定値
const (
	defaultPort        = "8080"
	defaultSQLitePath  = "duochat.db"
	defaultCORSOrigins = "http://localhost:5173,http://localhost:3000"
	minSecretLength    = 32
)

// ストレージ種別
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config はサービス全体の設定
type Config struct {
	Env      string
	Server   ServerConfig
	Storage  StorageConfig
	Session  SessionConfig
	CORS     CORSConfig
	LogLevel slog.Level

	// 警告はロガー初期化後に出力する
	Warnings []string
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Addr string
}

// StorageConfig はメッセージストレージの設定
type StorageConfig struct {
	Type        string
	DatabaseURL string
	SQLitePath  string
}

// SessionConfig はセッションCookieの設定
type SessionConfig struct {
	Secret     []byte
	CookieName string
	Secure     bool
}

// CORSConfig は許可するオリジン
type CORSConfig struct {
	AllowedOrigins []string
}

// IsDev は開発環境かどうか
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// Load は環境変数から設定を読み込む
func Load() (*Config, error) {
	cfg := &Config{Env: strings.TrimSpace(os.Getenv("APP_ENV"))}

	var err error
	if cfg.Server, err = loadServerConfig(); err != nil {
		return nil, err
	}
	if cfg.Storage, err = loadStorageConfig(); err != nil {
		return nil, err
	}
	if cfg.Session, err = loadSessionConfig(cfg); err != nil {
		return nil, err
	}
	cfg.CORS = CORSConfig{AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins))}
	if cfg.LogLevel, err = parseLogLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadServerConfig は待ち受けアドレスを解決する
func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", defaultPort)

	if strings.Contains(port, ":") {
		// ":8080" や "127.0.0.1:8080" をそのまま受け付ける
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// loadStorageConfig はストレージ種別と接続先を解決する
func loadStorageConfig() (StorageConfig, error) {
	cfg := StorageConfig{
		Type:       strings.ToLower(getEnvOrDefault("STORAGE_TYPE", StorageMemory)),
		SQLitePath: getEnvOrDefault("SQLITE_PATH", defaultSQLitePath),
	}

	switch cfg.Type {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		url, err := databaseURL()
		if err != nil {
			return StorageConfig{}, err
		}
		cfg.DatabaseURL = url
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_TYPE value: %q", cfg.Type)
	}

	return cfg, nil
}

// databaseURL はDATABASE_URL、無ければ個別の環境変数から接続文字列を組み立てる（ECS + Secrets Manager対応）
func databaseURL() (string, error) {
	if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" {
		return url, nil
	}

	dbHost := strings.TrimSpace(os.Getenv("DB_HOST"))
	dbPort := getEnvOrDefault("DB_PORT", "5432")
	dbUser := strings.TrimSpace(os.Getenv("DB_USERNAME"))
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := strings.TrimSpace(os.Getenv("DB_NAME"))
	if dbHost == "" || dbUser == "" || dbPass == "" || dbName == "" {
		return "", fmt.Errorf("DATABASE_URL or DB_HOST/DB_USERNAME/DB_PASSWORD/DB_NAME is required when STORAGE_TYPE=postgres")
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=require", dbUser, dbPass, dbHost, dbPort, dbName), nil
}

// loadSessionConfig はセッションCookieの設定を読み込む
// 開発環境ではSESSION_SECRETが無ければランダムに生成する
func loadSessionConfig(cfg *Config) (SessionConfig, error) {
	secure, err := parseBoolEnv("SESSION_SECURE", false)
	if err != nil {
		return SessionConfig{}, err
	}

	sc := SessionConfig{
		Secret:     []byte(os.Getenv("SESSION_SECRET")),
		CookieName: strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME")),
		Secure:     secure,
	}

	switch {
	case len(sc.Secret) >= minSecretLength:
	case len(sc.Secret) == 0 && cfg.IsDev():
		sc.Secret = make([]byte, minSecretLength)
		if _, err := rand.Read(sc.Secret); err != nil {
			return SessionConfig{}, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Warnings = append(cfg.Warnings, "SESSION_SECRET not set, using a random secret; sessions will not survive restarts")
	case len(sc.Secret) == 0:
		return SessionConfig{}, fmt.Errorf("SESSION_SECRET is required")
	default:
		return SessionConfig{}, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSecretLength)
	}

	return sc, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL value: %q", raw)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
