package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Storage  StorageConfig
	Payments PaymentsConfig
	Notify   NotifyConfig
	App      AppConfig
}

type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
}

type StorageConfig struct {
	Driver    string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	URLTTL    time.Duration
}

type PaymentsConfig struct {
	WebhookSecret string
	Tolerance     time.Duration
}

type NotifyConfig struct {
	TemplatesPath   string
	APIBaseURL      string
	APIKey          string
	From            string
	PortalURL       string
	RatePerSecond   float64
	Burst           int
	MaxAttempts     int
	RequeueSchedule string
}

type AppConfig struct {
	Mode        string
	Environment string
	LogLevel    string
	ServiceName string
	Version     string
}

func (a AppConfig) IsDemo() bool { return a.Mode == ModeDemo }

// Load reads the API configuration.
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorker reads the configuration for the notification worker, which
// needs the database, Redis and the email API but no auth or payments.
func LoadWorker() (*Config, error) {
	cfg := load()
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("DB_DSN or DB_HOST is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	if err := cfg.ValidateNotify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() *Config {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("DB_DSN", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "portal"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "s3"),
			Bucket:    getEnv("STORAGE_BUCKET", "portal-files"),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", false),
			URLTTL:    getEnvAsDuration("STORAGE_URL_TTL", 15*time.Minute),
		},
		Payments: PaymentsConfig{
			WebhookSecret: getEnv("PAYMENTS_WEBHOOK_SECRET", ""),
			Tolerance:     getEnvAsDuration("PAYMENTS_TOLERANCE", 5*time.Minute),
		},
		Notify: NotifyConfig{
			TemplatesPath:   getEnv("NOTIFY_TEMPLATES_PATH", ""),
			APIBaseURL:      getEnv("NOTIFY_API_BASE_URL", ""),
			APIKey:          getEnv("NOTIFY_API_KEY", ""),
			From:            getEnv("NOTIFY_FROM", "studio@planhaus.local"),
			PortalURL:       getEnv("PORTAL_URL", "http://localhost:3000"),
			RatePerSecond:   getEnvAsFloat("NOTIFY_RATE_PER_SECOND", 2),
			Burst:           getEnvAsInt("NOTIFY_BURST", 5),
			MaxAttempts:     getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
			RequeueSchedule: getEnv("NOTIFY_REQUEUE_SCHEDULE", "@every 5m"),
		},
		App: AppConfig{
			Mode:        getEnv("APP_MODE", ModeProduction),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			ServiceName: getEnv("SERVICE_NAME", "portal-backend"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.App.Mode {
	case ModeDemo:
		return nil
	case ModeProduction:
	default:
		return fmt.Errorf("APP_MODE must be %q or %q, got %q", ModeDemo, ModeProduction, c.App.Mode)
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.Firebase.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if c.Payments.WebhookSecret == "" {
		return fmt.Errorf("PAYMENTS_WEBHOOK_SECRET is required")
	}

	return nil
}

// ValidateNotify checks the settings only the notification worker needs.
func (c *Config) ValidateNotify() error {
	if c.Notify.APIBaseURL == "" {
		return fmt.Errorf("NOTIFY_API_BASE_URL is required")
	}
	if c.Notify.APIKey == "" {
		return fmt.Errorf("NOTIFY_API_KEY is required")
	}
	if c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
