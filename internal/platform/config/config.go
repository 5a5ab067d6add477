package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr    string
	BaseURL string
	Env     string

	DatabaseURL string
	RedisAddr   string

	KafkaBrokers []string
	AuditTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	SessionTTL       time.Duration
	DesignConfigPath string
	LogoURL          string
	AssetTimeout     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:    getenv("KABALE_ID_ADDR", ":8080"),
		BaseURL: getenv("KABALE_ID_BASE_URL", "http://localhost:8080"),
		Env:     getenv("KABALE_ID_ENV", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),

		AuditTopic: getenv("AUDIT_TOPIC", "kabaleid.verification"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "citizen-photos"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		SessionTTL:       getduration("SESSION_TTL", 7*24*time.Hour),
		DesignConfigPath: os.Getenv("DESIGN_CONFIG_PATH"),
		LogoURL:          os.Getenv("CARD_LOGO_URL"),
		AssetTimeout:     getduration("CARD_ASSET_TIMEOUT", 5*time.Second),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// IsProduction gates Secure cookies and JSON log output.
func (s Server) IsProduction() bool {
	return s.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
