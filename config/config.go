package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port     string
	DBDriver string // "mysql" or "sqlite"
	DBDSN    string
	DBPath   string // sqlite file, ":memory:" for tests

	AllowOrigin string

	ProviderBaseURL   string
	ProviderServerKey string
	ProviderTimeout   time.Duration

	ReconcileInterval time.Duration
	ReconcileStale    time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		DBDriver:          getenv("DB_DRIVER", "mysql"),
		DBPath:            getenv("DB_PATH", "tableside.db"),
		AllowOrigin:       getenv("ALLOW_ORIGIN", "http://127.0.0.1:5500"),
		ProviderBaseURL:   getenv("PROVIDER_BASE_URL", "https://api.sandbox.payments.example.com"),
		ProviderServerKey: getenv("PROVIDER_SERVER_KEY", ""),
		ProviderTimeout:   getenvDuration("PROVIDER_TIMEOUT_SECONDS", 15) * time.Second,
		ReconcileInterval: getenvDuration("RECONCILE_INTERVAL_SECONDS", 300) * time.Second,
		ReconcileStale:    getenvDuration("RECONCILE_STALE_SECONDS", 600) * time.Second,
	}

	user := getenv("DB_USER", "root")
	pass := getenv("DB_PASSWORD", "")
	host := getenv("DB_HOST", "127.0.0.1")
	port := getenv("DB_PORT", "3306")
	name := getenv("DB_NAME", "tableside")
	cfg.DBDSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, name)

	return cfg
}

// InitDB opens the configured database. MySQL is the production store;
// sqlite covers local development and tests.
func InitDB(cfg *Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	default:
		return gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}
