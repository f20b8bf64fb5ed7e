package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	AppPort     string
	DatabaseURL string
	CORSOrigins string

	JWTSecret string
	TokenTTL  time.Duration

	OTPTTL                 time.Duration
	PendingSignupRetention time.Duration
	PurgeInterval          time.Duration
	IdempotencyWindow      time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	TelegramBotToken  string
	TelegramAdminChat string

	RabbitMQURL      string
	RabbitMQExchange string
}

// SeedAdmin holds the super-admin credentials used by the seed command.
type SeedAdmin struct {
	Email    string
	Username string
	Password string
	Mobile   string
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:                getEnv("APP_PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", "sqlite://food_delivery.db"),
		CORSOrigins:            getEnv("CORS_ORIGINS", "*"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:                 getEnvDuration("OTP_TTL", 10*time.Minute),
		PendingSignupRetention: getEnvDuration("PENDING_SIGNUP_RETENTION", 24*time.Hour),
		PurgeInterval:          getEnvDuration("PURGE_INTERVAL", time.Hour),
		IdempotencyWindow:      getEnvDuration("IDEMPOTENCY_WINDOW", 24*time.Hour),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:               getEnv("SMTP_FROM", ""),
		TelegramBotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChat:      getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),
		RabbitMQURL:            getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:       getEnv("RABBITMQ_EXCHANGE", "food.orders"),
	}

	if cfg.AppPort == "" {
		log.Fatal("APP_PORT must be set")
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

// LoadSeedAdmin reads the super-admin seed credentials. ok is false when
// any of them is missing.
func LoadSeedAdmin() (SeedAdmin, bool) {
	_ = godotenv.Load()

	admin := SeedAdmin{
		Email:    getEnv("SEED_ADMIN_EMAIL", ""),
		Username: getEnv("SEED_ADMIN_USERNAME", ""),
		Password: getEnv("SEED_ADMIN_PASSWORD", ""),
		Mobile:   getEnv("SEED_ADMIN_MOBILE", ""),
	}
	ok := admin.Email != "" && admin.Username != "" && admin.Password != "" && admin.Mobile != ""
	return admin, ok
}

// SMTPEnabled reports whether an email transport is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("36h", "15m") or a bare
// number of hours.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}
	log.Printf("config: ignoring invalid duration %s=%q", key, value)
	return fallback
}
