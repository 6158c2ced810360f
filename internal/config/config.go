package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Environment
	AppEnv string

	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	StoreDriver string

	// Tokens (access and refresh are signed with distinct secrets)
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Federated identity
	GoogleClientID string

	// Passwords
	BcryptCost int

	// HTTP
	Port         string
	CORSOrigins  string
	CookieSecure bool

	// Logging
	LogRetentionDays int
	SentryDSN        string
}

// Load reads the configuration from the environment. In development a .env
// file in the working directory is loaded first, if present.
func Load() *Config {
	appEnv := getEnv("APP_ENV", "development")
	if appEnv == "development" {
		_ = godotenv.Load()
	}

	return &Config{
		AppEnv: appEnv,

		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "learnhub"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),

		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
		RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		Port:         getEnv("PORT", "8000"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		CookieSecure: getEnvBool("COOKIE_SECURE", appEnv == "production"),

		LogRetentionDays: getEnvInt("LOG_RETENTION_DAYS", 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
	}
}

// Validate checks the settings the auth server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for the postgres store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be postgres or memory"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// VideoCacheConfig configures the video metadata cache service.
type VideoCacheConfig struct {
	AppEnv        string
	Port          string
	YouTubeAPIKey string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisTLS      bool
	CacheTTL      time.Duration
}

func LoadVideoCache() *VideoCacheConfig {
	appEnv := getEnv("APP_ENV", "development")
	if appEnv == "development" {
		_ = godotenv.Load()
	}

	return &VideoCacheConfig{
		AppEnv:        appEnv,
		Port:          getEnv("VIDEOCACHE_PORT", "4001"),
		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvBool("REDIS_TLS", false),
		CacheTTL:      parseDuration(getEnv("CACHE_TTL", "1h"), time.Hour),
	}
}

func (c *VideoCacheConfig) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

func getEnvBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
