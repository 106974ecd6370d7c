package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service settings, read from the environment.
type Config struct {
	Env  string
	Port string

	StoreDriver string // mongo | postgres | sqlite
	MongoURI    string
	MongoDB     string
	PostgresDSN string
	SQLitePath  string

	RedisAddr      string
	ReportCacheTTL time.Duration

	JWTSecret     string
	WebhookSecret string

	BlobBackend   string // s3 | local
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	BlobPublicURL string
	LocalBlobDir  string

	AIProvider string
	AIAPIKey   string
	AIModel    string

	FreeSessionLimit int
	PendingAnswerTTL time.Duration
	SweepSchedule    string

	AllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Env:  getEnv("APP_ENV", "production"),
		Port: getEnv("PORT", "8080"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB_NAME", "mockprep"),
		PostgresDSN: postgresDSN(),
		SQLitePath:  getEnv("SQLITE_PATH", "mockprep.db"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		ReportCacheTTL: getEnvDuration("REPORT_CACHE_TTL", 10*time.Minute),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", os.Getenv("PAYMENT_WEBHOOK_SECRET")),

		BlobBackend:   strings.ToLower(getEnv("BLOB_BACKEND", "local")),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      getEnv("S3_REGION", "auto"),
		S3Bucket:      getEnv("S3_BUCKET", "interview-videos"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		BlobPublicURL: os.Getenv("BLOB_PUBLIC_URL"),
		LocalBlobDir:  getEnv("LOCAL_BLOB_DIR", "./uploads"),

		AIProvider: getEnv("AI_PROVIDER", "gemini"),
		AIAPIKey:   os.Getenv("GEMINI_API_KEY"),
		AIModel:    os.Getenv("GEMINI_MODEL"),

		FreeSessionLimit: getEnvInt("FREE_SESSION_LIMIT", 5),
		PendingAnswerTTL: getEnvDuration("PENDING_ANSWER_TTL", 30*time.Minute),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@hourly"),

		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.StoreDriver {
	case "mongo":
		if cfg.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s. Supported: mongo, postgres, sqlite", cfg.StoreDriver)
	}

	switch cfg.BlobBackend {
	case "s3":
		if cfg.S3Bucket == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return errors.New("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required when BLOB_BACKEND=s3")
		}
	case "local":
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND: %s. Supported: s3, local", cfg.BlobBackend)
	}

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.FreeSessionLimit < 0 {
		return errors.New("FREE_SESSION_LIMIT must not be negative")
	}
	return nil
}

func postgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("POSTGRES_DB", "mockprep"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
