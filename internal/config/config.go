package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Env        string
	ServerPort string
	UploadsDir string

	DB DBConfig

	JWTSecret string
	JWTTTL    time.Duration

	InitialAdminEmail string

	Storage StorageConfig
	Mail    MailConfig
	Redis   RedisConfig

	StatsCacheTTL time.Duration

	OTelEndpoint    string
	OTelSampleRatio float64
}

type StorageConfig struct {
	Driver    string // "local" or "s3"
	AWSRegion string
	S3Bucket  string
}

type MailConfig struct {
	SendGridAPIKey string
	FromName       string
	FromAddress    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	jwtMinutes, err := getEnvInt("JWT_EXPIRATION_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	statsTTL, err := getEnvInt("STATS_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	sampleRatio, err := getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1)
	if err != nil {
		return nil, err
	}
	if !(sampleRatio >= 0 && sampleRatio <= 1) {
		return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1, got %v", sampleRatio)
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "dev"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
		DB:                *dbCfg,
		JWTSecret:         jwtSecret,
		JWTTTL:            time.Duration(jwtMinutes) * time.Minute,
		InitialAdminEmail: os.Getenv("INITIAL_ADMIN_EMAIL"),
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "local"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
			S3Bucket:  os.Getenv("S3_BUCKET"),
		},
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromName:       getEnv("MAIL_FROM_NAME", "Shop"),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "no-reply@example.com"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		StatsCacheTTL:   time.Duration(statsTTL) * time.Second,
		OTelEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelSampleRatio: sampleRatio,
	}

	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET must be set when STORAGE_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (use local or s3)", cfg.Storage.Driver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
