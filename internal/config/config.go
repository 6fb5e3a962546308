package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const defaultSessionSecret = "dev-secret-change-in-production"

type Config struct {
	Port string
	Env  string

	DataStore string
	MongoURI  string
	MongoDB   string

	SessionStore      string
	MySQLDSN          string
	SessionSecret     string
	SessionMaxAge     time.Duration
	SessionTouchAfter time.Duration

	ImageBucket    string
	MaxUploadBytes int64

	DBTimeout     time.Duration
	UploadTimeout time.Duration

	LoginRate  float64
	LoginBurst int

	// TrustProxy honours X-Forwarded-For and related headers. Enable it only
	// behind a reverse proxy that overwrites them.
	TrustProxy bool
}

func Load() Config {
	cfg := Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DataStore: getEnv("DATA_STORE", "mongo"),
		MongoURI:  getEnv("MONGO_URI", getEnv("ATLAS_DB_URL", "mongodb://127.0.0.1:27017")),
		MongoDB:   getEnv("MONGO_DB", "wanderlust"),

		SessionStore:      getEnv("SESSION_STORE", "mongo"),
		MySQLDSN:          getEnv("MYSQL_DSN", "root:password@tcp(127.0.0.1:3306)/wanderlust?parseTime=true"),
		SessionSecret:     getEnv("SESSION_SECRET", getEnv("SECRET", defaultSessionSecret)),
		SessionMaxAge:     getDuration("SESSION_MAX_AGE", 7*24*time.Hour),
		SessionTouchAfter: getDuration("SESSION_TOUCH_AFTER", 24*time.Hour),

		ImageBucket:    getEnv("IMAGE_BUCKET", "wanderlust_DEV"),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 10<<20),

		DBTimeout:     getDuration("DB_TIMEOUT", 5*time.Second),
		UploadTimeout: getDuration("UPLOAD_TIMEOUT", 30*time.Second),

		LoginRate:  getFloat("LOGIN_RATE", 5),
		LoginBurst: int(getInt64("LOGIN_BURST", 10)),

		TrustProxy: getBool("TRUST_PROXY", false),
	}

	if cfg.Env == "production" && cfg.SessionSecret == defaultSessionSecret {
		slog.Error("SESSION_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// IsProduction reports whether cookies should be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}
