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

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	Zoho      ZohoConfig
	Uploads   UploadConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	FrontendURL           string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format is "json" or "console". Empty picks json in production and console elsewhere.
	Format string
}

// AuthConfig defines session token and cookie parameters.
type AuthConfig struct {
	JWTSecret          string
	BuyerTokenTTLHours int
	EmployeeTTLHours   int
	AdminTTLHours      int
	BcryptCost         int
	BuyerCookie        string
	EmployeeCookie     string
	AdminCookie        string
	SecureCookies      bool
}

// AdminConfig is the marketplace admin credential. It is not an employee account.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// RateLimitConfig bounds login attempts.
type RateLimitConfig struct {
	LoginAttempts      int
	LoginWindowSeconds int
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	AdminEmail string
}

// ZohoConfig holds credentials for the third-party CRM push.
type ZohoConfig struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	AccessTokenURL string
	APIURL         string
}

// UploadConfig controls lead document storage.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

const devJWTSecret = "dev-secret"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ppa-crm"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     lookupEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: lookupEnv("LOG_FORMAT", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", devJWTSecret),
			BuyerTokenTTLHours: getEnvAsInt("AUTH_BUYER_TOKEN_TTL_HOURS", 24*7),
			EmployeeTTLHours:   getEnvAsInt("AUTH_EMPLOYEE_TOKEN_TTL_HOURS", 24*7),
			AdminTTLHours:      getEnvAsInt("AUTH_ADMIN_TOKEN_TTL_HOURS", 24),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 10),
			BuyerCookie:        getEnv("AUTH_BUYER_COOKIE", "token"),
			EmployeeCookie:     getEnv("AUTH_EMPLOYEE_COOKIE", "employee_token"),
			AdminCookie:        getEnv("AUTH_ADMIN_COOKIE", "admin_token"),
			SecureCookies:      getEnvAsBool("AUTH_SECURE_COOKIES", env == "production"),
		},
		Admin: AdminConfig{
			Email:        os.Getenv("ADMIN_EMAIL"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts:      getEnvAsInt("LOGIN_RATE_LIMIT_ATTEMPTS", 10),
			LoginWindowSeconds: getEnvAsInt("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 300),
		},
		SMTP: SMTPConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       smtpPort,
			User:       os.Getenv("SMTP_USER"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       getEnv("EMAIL_FROM", "noreply@suvarnacapital.com"),
			AdminEmail: getEnv("ADMIN_NOTIFY_EMAIL", getEnv("ADMIN_EMAIL", "admin@suvarnacapital.com")),
		},
		Zoho: ZohoConfig{
			ClientID:       os.Getenv("ZOHO_CLIENT_ID"),
			ClientSecret:   os.Getenv("ZOHO_CLIENT_SECRET"),
			RefreshToken:   os.Getenv("ZOHO_REFRESH_TOKEN"),
			AccessTokenURL: os.Getenv("ZOHO_ACCESS_TOKEN_URL"),
			APIURL:         os.Getenv("ZOHO_CRM_API_URL"),
		},
		Uploads: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "./uploads"),
			MaxSizeBytes: int64(getEnvAsInt("UPLOAD_MAX_SIZE_BYTES", 10*1024*1024)),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.Env == "production" && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("AUTH_BCRYPT_COST %d out of range 4..31", c.Auth.BcryptCost)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginWindow returns the limiter window.
func (r RateLimitConfig) LoginWindow() time.Duration {
	if r.LoginWindowSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.LoginWindowSeconds) * time.Second
}

// Enabled reports whether SMTP credentials are present.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Password != ""
}

// Enabled reports whether every Zoho credential is present.
func (z ZohoConfig) Enabled() bool {
	return z.ClientID != "" && z.ClientSecret != "" && z.RefreshToken != "" &&
		z.AccessTokenURL != "" && z.APIURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// lookupEnv is getEnv that honours an explicitly empty value.
func lookupEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
