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

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Session      SessionConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig controls the signed cart session tokens.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type CartConfig struct {
	// Storage selects the persistence backend: redis, database or memory.
	Storage    string
	StorageKey string
	TTL        time.Duration
	// AddDelay is the cosmetic pause applied before an add resolves.
	AddDelay            time.Duration
	RecentlyAddedWindow time.Duration
	IdleTimeout         time.Duration
}

type CheckoutConfig struct {
	PaymentWindow  time.Duration
	RedirectDelay  time.Duration
	DefaultLanding string
	// SweepSchedule is the cron spec for dropping abandoned checkout sessions.
	SweepSchedule string
	IdleTimeout   time.Duration
}

type NotificationConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "change-me-session-secret"),
			TTL:    parseDuration(getEnv("SESSION_TTL", "720h"), 720*time.Hour),
		},
		Cart: CartConfig{
			Storage:             strings.ToLower(getEnv("CART_STORAGE", "redis")),
			StorageKey:          getEnv("CART_STORAGE_KEY", "cart-storage"),
			TTL:                 parseDuration(getEnv("CART_TTL", "720h"), 720*time.Hour),
			AddDelay:            parseDuration(getEnv("CART_ADD_DELAY", "300ms"), 300*time.Millisecond),
			RecentlyAddedWindow: parseDuration(getEnv("CART_RECENTLY_ADDED_WINDOW", "2s"), 2*time.Second),
			IdleTimeout:         parseDuration(getEnv("CART_IDLE_TIMEOUT", "2h"), 2*time.Hour),
		},
		Checkout: CheckoutConfig{
			PaymentWindow:  parseDuration(getEnv("CHECKOUT_PAYMENT_WINDOW", "15m"), 15*time.Minute),
			RedirectDelay:  parseDuration(getEnv("CHECKOUT_REDIRECT_DELAY", "10s"), 10*time.Second),
			DefaultLanding: getEnv("CHECKOUT_DEFAULT_LANDING", "/"),
			SweepSchedule:  getEnv("CHECKOUT_SWEEP_SCHEDULE", "*/10 * * * *"),
			IdleTimeout:    parseDuration(getEnv("CHECKOUT_IDLE_TIMEOUT", "1h"), time.Hour),
		},
		Notification: NotificationConfig{
			URL:         getEnv("ORDER_NOTIFY_URL", "http://localhost:54321/functions/v1/send-order-notification"),
			APIKey:      getEnv("ORDER_NOTIFY_API_KEY", ""),
			Timeout:     parseDuration(getEnv("ORDER_NOTIFY_TIMEOUT", "10s"), 10*time.Second),
			MaxRetries:  parseInt(getEnv("ORDER_NOTIFY_MAX_RETRIES", "2"), 2),
			BaseBackoff: parseDuration(getEnv("ORDER_NOTIFY_BACKOFF", "1s"), time.Second),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Cart.Storage {
	case "redis", "database", "memory":
	default:
		return fmt.Errorf("unsupported CART_STORAGE %q", c.Cart.Storage)
	}
	if c.Notification.MaxRetries < 0 {
		return fmt.Errorf("ORDER_NOTIFY_MAX_RETRIES must not be negative")
	}
	if c.Checkout.PaymentWindow <= 0 {
		return fmt.Errorf("CHECKOUT_PAYMENT_WINDOW must be positive")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
