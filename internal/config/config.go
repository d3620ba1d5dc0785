package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// URL, when set, replaces the individual connection fields.
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Driver string // "minio" or "s3"
	MinIO  MinIOConfig
	S3     S3Config
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Config holds settings for the AWS S3 driver. Credentials come from the
// default AWS chain unless AccessKeyID and SecretAccessKey are set.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// AucoConfig holds credentials for the Auco e-signature API.
// PublicKey (puk_) signs reads, PrivateKey (prk_) signs writes.
type AucoConfig struct {
	BaseURL      string
	APIBase      string
	PublicKey    string
	PrivateKey   string
	OwnerEmail   string
	WebhookToken string
	// WebhookSecret keys the HMAC in X-Auco-Signature on identity
	// verification callbacks.
	WebhookSecret string
	Timeout       time.Duration
}

type MusoConfig struct {
	APIKey         string
	BaseURL        string
	CreditsTTL     time.Duration
	SyncConcurrent int
}

type PDFConfig struct {
	PDFShiftKey string
	PDFShiftURL string
	ChromeBin   string
	Timeout     time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env           string
	AppHost       string
	Port          string
	PublicBaseURL string
	Database      DatabaseConfig
	Storage       StorageConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Auco          AucoConfig
	Muso          MusoConfig
	PDF           PDFConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence.
func Load() *AppConfig {
	aucoBase := strings.TrimRight(getEnv("AUCO_BASE_URL", "https://api.auco.ai/v1.5/ext"), "/")

	return &AppConfig{
		Env:           getEnv("APP_ENV", "dev"),
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				PathStyle:       getEnvBool("S3_PATH_STYLE", false),
			},
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			ChannelPrefix: getEnv("CHAT_CHANNEL_PREFIX", "team-chat"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		Auco: AucoConfig{
			BaseURL:       aucoBase,
			APIBase:       strings.TrimRight(getEnv("AUCO_API_BASE", strings.TrimSuffix(aucoBase, "/ext")), "/"),
			PublicKey:     strings.TrimSpace(getEnv("AUCO_PUK", "")),
			PrivateKey:    strings.TrimSpace(getEnv("AUCO_PRK", "")),
			OwnerEmail:    getEnv("AUCO_OWNER_EMAIL", ""),
			WebhookToken:  getEnv("AUCO_WEBHOOK_TOKEN", getEnv("AUCO_API_SECRET", "")),
			WebhookSecret: getEnv("AUCO_WEBHOOK_SECRET", ""),
			Timeout:       getEnvDuration("AUCO_TIMEOUT", 30*time.Second),
		},
		Muso: MusoConfig{
			APIKey:         getEnv("MUSO_AI_API_KEY", ""),
			BaseURL:        strings.TrimRight(getEnv("MUSO_AI_BASE_URL", "https://api.developer.muso.ai/v4"), "/"),
			CreditsTTL:     getEnvDuration("MUSO_CREDITS_CACHE_TTL", time.Hour),
			SyncConcurrent: getEnvInt("MUSO_SYNC_CONCURRENCY", 4),
		},
		PDF: PDFConfig{
			PDFShiftKey: getEnv("PDFSHIFT_API_KEY", ""),
			PDFShiftURL: getEnv("PDFSHIFT_URL", "https://api.pdfshift.io/v3/convert/pdf"),
			ChromeBin:   getEnv("CHROME_BIN", ""),
			Timeout:     getEnvDuration("PDF_TIMEOUT", 60*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
